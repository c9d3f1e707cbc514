package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/keepsake-api/internal/domain"
)

// pendingItem is the stored shape of a domain.PendingSignup. Expiry is kept
// as Unix milliseconds so sub-second precision survives and the sweep can
// compare it numerically.
type pendingItem struct {
	Email           string `dynamodbav:"email"`
	Code            string `dynamodbav:"code"`
	Password        string `dynamodbav:"password"`
	ExpiryMillis    int64  `dynamodbav:"expiry"`
	HasVerification bool   `dynamodbav:"has_verification"`
}

func toPendingItem(p *domain.PendingSignup) pendingItem {
	return pendingItem{
		Email:           p.Email,
		Code:            p.Code,
		Password:        p.Password,
		ExpiryMillis:    p.Expiry.UnixMilli(),
		HasVerification: p.HasVerification,
	}
}

func (i pendingItem) toDomain() *domain.PendingSignup {
	return &domain.PendingSignup{
		Email:           i.Email,
		Code:            i.Code,
		Password:        i.Password,
		Expiry:          time.UnixMilli(i.ExpiryMillis).UTC(),
		HasVerification: i.HasVerification,
	}
}

// PendingSignupRepo stores signup attempts awaiting their emailed code.
// PK: email
type PendingSignupRepo struct {
	client    API
	tableName string
}

func NewPendingSignupRepo(client API, tableName string) *PendingSignupRepo {
	return &PendingSignupRepo{client: client, tableName: tableName}
}

// Upsert writes p, replacing any record already stored for p.Email in the
// same request.
func (r *PendingSignupRepo) Upsert(ctx context.Context, p *domain.PendingSignup) error {
	item, err := attributevalue.MarshalMap(toPendingItem(p))
	if err != nil {
		return fmt.Errorf("marshal pending signup: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByEmailAndCode returns the record for email only when its code equals
// code exactly. A missing record and a wrong code both yield ErrNotFound.
func (r *PendingSignupRepo) GetByEmailAndCode(ctx context.Context, email, code string) (*domain.PendingSignup, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending signup not found: %w", domain.ErrNotFound)
	}
	var item pendingItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal pending signup: %w", err)
	}
	if item.Code != code {
		return nil, fmt.Errorf("pending signup not found: %w", domain.ErrNotFound)
	}
	return item.toDomain(), nil
}

func (r *PendingSignupRepo) Delete(ctx context.Context, email string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	return err
}

// DeleteExpired removes every record whose expiry is before cutoff and returns
// how many were deleted. Each delete re-checks the expiry so a signup that
// replaced the record mid-sweep survives.
func (r *PendingSignupRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	names := map[string]string{"#e": fieldEmail, "#x": fieldExpiry}
	values := map[string]types.AttributeValue{
		":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.UnixMilli(), 10)},
	}
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String("#x < :cutoff"),
		ProjectionExpression:      aws.String("#e"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})

	deleted := 0
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("scan expired pending signups: %w", err)
		}
		for _, item := range page.Items {
			key, ok := item[fieldEmail].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey(fieldEmail, key.Value),
				ConditionExpression:       aws.String("#x < :cutoff"),
				ExpressionAttributeNames:  map[string]string{"#x": fieldExpiry},
				ExpressionAttributeValues: values,
			})
			if err != nil {
				if isConditionFailed(err) {
					continue
				}
				return deleted, fmt.Errorf("delete pending signup: %w", err)
			}
			deleted++
		}
	}
	return deleted, nil
}
