package credentials

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrongjunior/eventboard/internal/config"
	"github.com/wrongjunior/eventboard/internal/domain"
)

type fakeSSM struct {
	calls  atomic.Int32
	values map[string]string
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls.Add(1)
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("decryption not requested")
	}
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, &types.ParameterNotFound{Message: aws.String("parameter not found")}
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func TestSSMProvider(t *testing.T) {
	f := &fakeSSM{values: map[string]string{"/bot/token": " secret\n", "/bot/empty": ""}}
	ctx := context.Background()

	token, err := NewSSMProvider(f, "/bot/token").Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	_, err = NewSSMProvider(f, "/bot/missing").Token(ctx)
	assert.Equal(t, domain.KindCredential, domain.KindOf(err))
	var notFound *types.ParameterNotFound
	assert.True(t, errors.As(err, &notFound))

	_, err = NewSSMProvider(f, "/bot/empty").Token(ctx)
	assert.Equal(t, domain.KindCredential, domain.KindOf(err))
}

func TestCachedFetchesOnce(t *testing.T) {
	f := &fakeSSM{values: map[string]string{"/bot/token": "secret"}}
	c := NewCached(NewSSMProvider(f, "/bot/token"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := c.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "secret", token)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	f := &fakeSSM{values: map[string]string{}}
	c := NewCached(NewSSMProvider(f, "/bot/token"))

	_, err := c.Token(context.Background())
	require.Error(t, err)

	f.values["/bot/token"] = "secret"
	token, err := c.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", token)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestStatic(t *testing.T) {
	token, err := Static("abc").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = Static("").Token(context.Background())
	assert.Equal(t, domain.KindCredential, domain.KindOf(err))
}

func TestFromConfigPrefersStaticToken(t *testing.T) {
	cfg := config.DiscordConfig{BotToken: "abc", TokenParameter: "/bot/token"}
	assert.False(t, NeedsAWS(cfg))

	token, err := FromConfig(cfg, aws.Config{}).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	assert.True(t, NeedsAWS(config.DiscordConfig{TokenParameter: "/bot/token"}))
}
