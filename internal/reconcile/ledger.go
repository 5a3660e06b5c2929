// Package reconcile keeps the ledger of inventory decrements that were left
// without an order, in DynamoDB.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/order-service/pkg/config"
)

var ErrRecordNotPending = errors.New("inconsistency record not found or already resolved")

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type Ledger struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

func NewDynamoDBClient(ctx context.Context, cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// 로컬 DynamoDB는 임의의 자격 증명을 받음
	if cfg.LocalMode {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewLedger(client dynamoAPI, tableName string) *Ledger {
	return &Ledger{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

// Record stores rec once. Recording the same record id again is a no-op.
func (l *Ledger) Record(ctx context.Context, rec domain.Inconsistency) error {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal inconsistency: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("record_id"))).
		Build()
	if err != nil {
		return err
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(l.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// ListPending returns up to limit unresolved records, oldest first.
func (l *Ledger) ListPending(ctx context.Context, limit int32) ([]domain.Inconsistency, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("status").Equal(expression.Value(domain.InconsistencyPending))).
		Build()
	if err != nil {
		return nil, err
	}

	paginator := dynamodb.NewScanPaginator(l.client, &dynamodb.ScanInput{
		TableName:                 aws.String(l.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var recs []domain.Inconsistency
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		var batch []domain.Inconsistency
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inconsistencies: %w", err)
		}
		recs = append(recs, batch...)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].DetectedAt.Before(recs[j].DetectedAt) })
	if limit > 0 && int(limit) < len(recs) {
		recs = recs[:limit]
	}
	if recs == nil {
		recs = []domain.Inconsistency{}
	}
	return recs, nil
}

// Resolve marks a pending record as repaired.
func (l *Ledger) Resolve(ctx context.Context, recordID string) error {
	update := expression.Set(
		expression.Name("status"),
		expression.Value(domain.InconsistencyResolved),
	).Set(
		expression.Name("resolved_at"),
		expression.Value(l.now().UTC()),
	)

	// 아직 처리되지 않은 기록만 갱신
	condition := expression.AttributeExists(expression.Name("record_id")).
		And(expression.Name("status").Equal(expression.Value(domain.InconsistencyPending)))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return err
	}

	_, err = l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"record_id": &types.AttributeValueMemberS{Value: recordID},
		},
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrRecordNotPending
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}
