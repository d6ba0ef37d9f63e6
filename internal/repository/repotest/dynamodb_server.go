// Package repotest provides an in-memory DynamoDB simulator for tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBServer implements the table operations used by the repository
// against a map keyed by the "id" string attribute.
type DynamoDBServer struct {
	mu sync.Mutex

	tables   map[string]map[string]map[string]types.AttributeValue
	pageSize int
	failWith error
	calls    map[string]int
}

func NewDynamoDBServer() *DynamoDBServer {
	srv := &DynamoDBServer{}
	srv.Reset()
	return srv
}

func (s *DynamoDBServer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]map[string]map[string]types.AttributeValue)
	s.calls = make(map[string]int)
	s.failWith = nil
}

// SetPageSize limits the number of items returned per Scan page.
func (s *DynamoDBServer) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// FailWith makes every subsequent call return err. nil restores normal behaviour.
func (s *DynamoDBServer) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Calls returns how many times the named operation was invoked.
func (s *DynamoDBServer) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls across all operations.
func (s *DynamoDBServer) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Items returns a copy of every item stored in table, ordered by id.
func (s *DynamoDBServer) Items(table string) []map[string]types.AttributeValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []map[string]types.AttributeValue
	for _, id := range s.sortedIDs(table) {
		items = append(items, s.tables[table][id])
	}
	return items
}

func (s *DynamoDBServer) begin(op string) error {
	s.calls[op]++
	return s.failWith
}

func (s *DynamoDBServer) table(name *string) map[string]map[string]types.AttributeValue {
	t, ok := s.tables[aws.ToString(name)]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		s.tables[aws.ToString(name)] = t
	}
	return t
}

func (s *DynamoDBServer) sortedIDs(table string) []string {
	ids := make([]string, 0, len(s.tables[table]))
	for id := range s.tables[table] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	v, ok := item["id"].(*types.AttributeValueMemberS)
	if !ok || v.Value == "" {
		return "", fmt.Errorf("ValidationException: missing string key attribute id")
	}
	return v.Value, nil
}

func (s *DynamoDBServer) Scan(
	ctx context.Context,
	input *dynamodb.ScanInput,
	opts ...func(*dynamodb.Options),
) (*dynamodb.ScanOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("Scan"); err != nil {
		return nil, err
	}

	t := s.table(input.TableName)
	ids := s.sortedIDs(aws.ToString(input.TableName))
	start := 0
	if input.ExclusiveStartKey != nil {
		after, err := keyOf(input.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		start = sort.SearchStrings(ids, after)
		if start < len(ids) && ids[start] == after {
			start++
		}
	}

	end := len(ids)
	if s.pageSize > 0 && start+s.pageSize < end {
		end = start + s.pageSize
	}

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		out.Items = append(out.Items, t[id])
	}
	out.Count = int32(len(out.Items))
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: ids[end-1]},
		}
	}
	return out, nil
}

func (s *DynamoDBServer) GetItem(
	ctx context.Context,
	input *dynamodb.GetItemInput,
	opts ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("GetItem"); err != nil {
		return nil, err
	}
	id, err := keyOf(input.Key)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: s.table(input.TableName)[id]}, nil
}

func (s *DynamoDBServer) PutItem(
	ctx context.Context,
	input *dynamodb.PutItemInput,
	opts ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("PutItem"); err != nil {
		return nil, err
	}
	id, err := keyOf(input.Item)
	if err != nil {
		return nil, err
	}
	item := make(map[string]types.AttributeValue, len(input.Item))
	for k, v := range input.Item {
		item[k] = v
	}
	s.table(input.TableName)[id] = item
	return &dynamodb.PutItemOutput{}, nil
}

func (s *DynamoDBServer) DeleteItem(
	ctx context.Context,
	input *dynamodb.DeleteItemInput,
	opts ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("DeleteItem"); err != nil {
		return nil, err
	}
	id, err := keyOf(input.Key)
	if err != nil {
		return nil, err
	}
	delete(s.table(input.TableName), id)
	return &dynamodb.DeleteItemOutput{}, nil
}
