package dynamo

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/keepsake-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}

func emailKeyIs(email string) func(map[string]types.AttributeValue) bool {
	return func(key map[string]types.AttributeValue) bool {
		s, ok := key[fieldEmail].(*types.AttributeValueMemberS)
		return ok && s.Value == email
	}
}

func storedItem(t *testing.T, p *domain.PendingSignup) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(toPendingItem(p))
	require.NoError(t, err)
	return item
}

// --- Upsert ---

func TestPendingSignupRepo_Upsert_WritesSchemaAttributes(t *testing.T) {
	api := &mockAPI{}
	expiry := time.Unix(1_700_000_300, 0).UTC()

	var got *dynamodb.PutItemInput
	api.On("PutItem", mock.Anything, mock.AnythingOfType("*dynamodb.PutItemInput")).
		Run(func(args mock.Arguments) { got = args.Get(1).(*dynamodb.PutItemInput) }).
		Return(&dynamodb.PutItemOutput{}, nil)

	repo := NewPendingSignupRepo(api, "signup_verifications")
	err := repo.Upsert(context.Background(), &domain.PendingSignup{
		Email: "a@x.com", Code: "123456", Password: "secret1", Expiry: expiry, HasVerification: true,
	})

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "signup_verifications", *got.TableName)
	assert.Nil(t, got.ConditionExpression, "upsert must replace unconditionally")
	assert.Equal(t, &types.AttributeValueMemberS{Value: "a@x.com"}, got.Item["email"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "123456"}, got.Item["code"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "secret1"}, got.Item["password"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1700000300000"}, got.Item["expiry"])
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, got.Item["has_verification"])
}

func TestPendingSignupRepo_Upsert_PropagatesError(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewPendingSignupRepo(api, "t").Upsert(context.Background(), &domain.PendingSignup{Email: "a@x.com"})
	assert.EqualError(t, err, "throttled")
}

func TestPendingSignupRepo_ExpiryKeepsSubSecondPrecision(t *testing.T) {
	api := &mockAPI{}
	created := time.Date(2026, 10, 19, 12, 0, 0, 900_000_000, time.UTC)
	expiry := created.Add(5 * time.Minute)

	var stored map[string]types.AttributeValue
	api.On("PutItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*dynamodb.PutItemInput).Item }).
		Return(&dynamodb.PutItemOutput{}, nil)

	repo := NewPendingSignupRepo(api, "t")
	require.NoError(t, repo.Upsert(context.Background(), &domain.PendingSignup{
		Email: "a@x.com", Code: "123456", Password: "secret1", Expiry: expiry, HasVerification: true,
	}))

	require.NotNil(t, stored)
	assert.Equal(t, &types.AttributeValueMemberN{Value: strconv.FormatInt(expiry.UnixMilli(), 10)}, stored["expiry"])
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: stored}, nil)

	p, err := repo.GetByEmailAndCode(context.Background(), "a@x.com", "123456")

	require.NoError(t, err)
	assert.True(t, p.Expiry.Equal(expiry), "got %s, want %s", p.Expiry, expiry)
	assert.False(t, p.Expired(expiry.Add(-100*time.Millisecond)))
	assert.True(t, p.Expired(expiry))
}

// --- GetByEmailAndCode ---

func TestPendingSignupRepo_GetByEmailAndCode_Missing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewPendingSignupRepo(api, "t").GetByEmailAndCode(context.Background(), "a@x.com", "123456")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPendingSignupRepo_GetByEmailAndCode_WrongCode(t *testing.T) {
	api := &mockAPI{}
	item := storedItem(t, &domain.PendingSignup{Email: "a@x.com", Code: "123456", Expiry: time.Now()})
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	_, err := NewPendingSignupRepo(api, "t").GetByEmailAndCode(context.Background(), "a@x.com", "654321")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPendingSignupRepo_GetByEmailAndCode_Match(t *testing.T) {
	api := &mockAPI{}
	expiry := time.Unix(1_700_000_300, 0)
	item := storedItem(t, &domain.PendingSignup{
		Email: "a@x.com", Code: "123456", Password: "secret1", Expiry: expiry, HasVerification: true,
	})
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return emailKeyIs("a@x.com")(in.Key) && in.ConsistentRead != nil && *in.ConsistentRead
	})).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	p, err := NewPendingSignupRepo(api, "t").GetByEmailAndCode(context.Background(), "a@x.com", "123456")

	require.NoError(t, err)
	assert.Equal(t, "secret1", p.Password)
	assert.True(t, p.Expiry.Equal(expiry))
	assert.True(t, p.HasVerification)
}

func TestPendingSignupRepo_GetByEmailAndCode_StoreError(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	_, err := NewPendingSignupRepo(api, "t").GetByEmailAndCode(context.Background(), "a@x.com", "123456")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

// --- Delete ---

func TestPendingSignupRepo_Delete(t *testing.T) {
	api := &mockAPI{}
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return emailKeyIs("a@x.com")(in.Key) && in.ConditionExpression == nil
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, NewPendingSignupRepo(api, "t").Delete(context.Background(), "a@x.com"))
	api.AssertExpectations(t)
}

// --- DeleteExpired ---

func TestPendingSignupRepo_DeleteExpired_SkipsReplacedRecords(t *testing.T) {
	api := &mockAPI{}
	cutoff := time.Unix(1_700_000_000, 0)

	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		v, ok := in.ExpressionAttributeValues[":cutoff"].(*types.AttributeValueMemberN)
		return ok && v.Value == "1700000000000"
	})).Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{
		strKey(fieldEmail, "old@x.com"),
		strKey(fieldEmail, "fresh@x.com"),
	}}, nil).Once()

	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return emailKeyIs("old@x.com")(in.Key) && in.ConditionExpression != nil
	})).Return(&dynamodb.DeleteItemOutput{}, nil)
	api.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return emailKeyIs("fresh@x.com")(in.Key)
	})).Return(nil, &types.ConditionalCheckFailedException{Message: strPtr("expiry moved")})

	n, err := NewPendingSignupRepo(api, "t").DeleteExpired(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	api.AssertExpectations(t)
}

func TestPendingSignupRepo_DeleteExpired_ScanError(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	n, err := NewPendingSignupRepo(api, "t").DeleteExpired(context.Background(), time.Now())
	assert.ErrorContains(t, err, "scan expired pending signups")
	assert.Zero(t, n)
}
