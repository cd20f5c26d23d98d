package cloud

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/onction/power-dashboard/internal/domain"
)

const (
	// batchSize is the DynamoDB batch write limit.
	batchSize        = 25
	feederAlertIndex = "feederId-timestamp-index"

	// batchAttempts bounds the writes of one batch, first try included.
	batchAttempts = 3
)

// dynamoAPI is the part of *dynamodb.Client the alert log uses.
type dynamoAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoDBClient keeps a log of every alert raised by a live snapshot.
type DynamoDBClient struct {
	svc     dynamoAPI
	table   string
	backoff time.Duration
}

func NewDynamoDBClient(cfg aws.Config, table string) *DynamoDBClient {
	return &DynamoDBClient{svc: dynamodb.NewFromConfig(cfg), table: table, backoff: 200 * time.Millisecond}
}

// AlertRecord is the stored form of an alert.
type AlertRecord struct {
	AlertID      string  `dynamodbav:"alertId" json:"alert_id"`
	FeederID     int64   `dynamodbav:"feederId" json:"feeder_id"`
	Timestamp    int64   `dynamodbav:"timestamp" json:"timestamp"`
	SnapshotTime string  `dynamodbav:"snapshotTime" json:"snapshot_time"`
	Name         string  `dynamodbav:"name" json:"name"`
	Zone         string  `dynamodbav:"zone" json:"zone"`
	TradingPoint string  `dynamodbav:"tradingPoint" json:"trading_point"`
	Reason       string  `dynamodbav:"reason" json:"reason"`
	UptimeHours  float64 `dynamodbav:"uptimeHours" json:"uptime_hours"`
}

// NewAlertRecords converts alerts into records with fresh ids.
func NewAlertRecords(snapshotTime time.Time, alerts []domain.Alert) []AlertRecord {
	out := make([]AlertRecord, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertRecord{
			AlertID:      uuid.NewString(),
			FeederID:     a.FeederID,
			Timestamp:    snapshotTime.Unix(),
			SnapshotTime: snapshotTime.Format(domain.TimestampLayout),
			Name:         a.Name,
			Zone:         a.Zone,
			TradingPoint: a.TradingPoint,
			Reason:       string(a.Reason),
			UptimeHours:  a.UptimeHours,
		})
	}
	return out
}

// PublishAlerts stores alerts in batches.
func (c *DynamoDBClient) PublishAlerts(ctx context.Context, snapshotTime time.Time, alerts []domain.Alert) error {
	records := NewAlertRecords(snapshotTime, alerts)
	for _, batch := range chunk(records, batchSize) {
		writeRequests := make([]types.WriteRequest, len(batch))
		for j, rec := range batch {
			item, err := attributevalue.MarshalMap(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal alert %d: %w", j, err)
			}
			writeRequests[j] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
		}

		if err := c.writeBatch(ctx, writeRequests); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch writes one batch and resubmits throttled items, backing off
// between attempts.
func (c *DynamoDBClient) writeBatch(ctx context.Context, pending []types.WriteRequest) error {
	for attempt := 1; ; attempt++ {
		out, err := c.svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{c.table: pending},
		})
		if err != nil {
			return fmt.Errorf("failed to batch write alerts: %w", err)
		}
		pending = out.UnprocessedItems[c.table]
		if len(pending) == 0 {
			return nil
		}
		if attempt == batchAttempts {
			log.Error().Int("unprocessed", len(pending)).Str("table", c.table).Msg("alert writes left unprocessed")
			return fmt.Errorf("%d alert writes unprocessed after %d attempts", len(pending), batchAttempts)
		}
		log.Warn().Int("unprocessed", len(pending)).Int("attempt", attempt).Msg("retrying unprocessed alert writes")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}

// FeederAlerts returns the newest alerts logged for one feeder.
func (c *DynamoDBClient) FeederAlerts(ctx context.Context, feederID int64, limit int32) ([]AlertRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		IndexName:              aws.String(feederAlertIndex),
		KeyConditionExpression: aws.String("feederId = :fid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fid": &types.AttributeValueMemberN{Value: strconv.FormatInt(feederID, 10)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	result, err := c.svc.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	alerts := []AlertRecord{}
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &alerts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
	}
	return alerts, nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end])
	}
	return out
}
