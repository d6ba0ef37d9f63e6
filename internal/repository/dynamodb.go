package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/juju/errors"

	"github.com/wrongjunior/eventboard/internal/domain"
)

// DynamoDBAPI описывает подмножество клиента DynamoDB, которое использует репозиторий.
type DynamoDBAPI interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoDBRepository хранит записи в одной таблице с ключом id.
type DynamoDBRepository struct {
	client DynamoDBAPI
	table  string
}

// NewDynamoDBRepository создаёт репозиторий поверх готового клиента.
func NewDynamoDBRepository(client DynamoDBAPI, table string) *DynamoDBRepository {
	return &DynamoDBRepository{client: client, table: table}
}

// storeErr помечает ошибку как ошибку хранилища. Код ошибки AWS, если он есть,
// попадает в текст операции.
func storeErr(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		op += " [" + apiErr.ErrorCode() + "]"
	}
	return domain.E(domain.KindStore, "dynamodb "+op, err)
}

func (repo *DynamoDBRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// ListEvents сканирует таблицу целиком, проходя все страницы.
func (repo *DynamoDBRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	paginator := dynamodb.NewScanPaginator(repo.client, &dynamodb.ScanInput{
		TableName: aws.String(repo.table),
	})

	var events []domain.Event
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeErr("scan", err)
		}
		var records []record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, storeErr("scan", fmt.Errorf("decode items: %w", err))
		}
		for _, r := range records {
			if r.isEvent() {
				events = append(events, r.event())
			}
		}
	}
	return events, nil
}

func (repo *DynamoDBRepository) get(ctx context.Context, id string) (*record, error) {
	out, err := repo.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(repo.table),
		Key:       repo.key(id),
	})
	if err != nil {
		return nil, storeErr("get", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var r record
	if err := attributevalue.UnmarshalMap(out.Item, &r); err != nil {
		return nil, storeErr("get", fmt.Errorf("decode item %s: %w", id, err))
	}
	return &r, nil
}

func (repo *DynamoDBRepository) put(ctx context.Context, r record) error {
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return storeErr("put", fmt.Errorf("encode item %s: %w", r.ID, err))
	}
	_, err = repo.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(repo.table),
		Item:      item,
	})
	if err != nil {
		return storeErr("put", err)
	}
	return nil
}

func (repo *DynamoDBRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	r, err := repo.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || !r.isEvent() {
		return nil, errors.NotFoundf("event %q", id)
	}
	ev := r.event()
	return &ev, nil
}

func (repo *DynamoDBRepository) PutEvent(ctx context.Context, event domain.Event) error {
	return repo.put(ctx, eventRecord(event))
}

// DeleteEvent удаляет запись без проверки существования.
func (repo *DynamoDBRepository) DeleteEvent(ctx context.Context, id string) error {
	_, err := repo.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(repo.table),
		Key:       repo.key(id),
	})
	if err != nil {
		return storeErr("delete", err)
	}
	return nil
}

func (repo *DynamoDBRepository) GetDashboard(ctx context.Context, role domain.Role) (*domain.DashboardConfig, error) {
	r, err := repo.get(ctx, domain.DashboardKey(role))
	if err != nil {
		return nil, err
	}
	if r == nil || r.ChannelID == "" || r.MessageID == "" {
		return nil, errors.NotFoundf("%s dashboard", role)
	}
	cfg := r.dashboard(role)
	return &cfg, nil
}

// PutDashboard перезаписывает конфигурацию дашборда роли.
func (repo *DynamoDBRepository) PutDashboard(ctx context.Context, cfg domain.DashboardConfig) error {
	return repo.put(ctx, dashboardRecord(cfg))
}
