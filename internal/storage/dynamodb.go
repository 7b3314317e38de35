package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client used here.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBStorage is the remote pad store.
type DynamoDBStorage struct {
	client    DynamoDBAPI
	tableName string
	userID    string
}

// DynamoDBItem represents the item structure in DynamoDB
type DynamoDBItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	PadID      string `dynamodbav:"pad_id"`
	Envelope   string `dynamodbav:"envelope"`
	Version    int64  `dynamodbav:"version"`
	ModifiedAt string `dynamodbav:"modified_at"`
	DeviceID   string `dynamodbav:"device_id"`
}

// NewDynamoDBStorage creates a new DynamoDB storage instance
func NewDynamoDBStorage(ctx context.Context, region, tableName, userID string) (*DynamoDBStorage, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewDynamoDBStorageWithClient(dynamodb.NewFromConfig(cfg), tableName, userID), nil
}

// NewDynamoDBStorageWithClient wires an existing client.
func NewDynamoDBStorageWithClient(client DynamoDBAPI, tableName, userID string) *DynamoDBStorage {
	return &DynamoDBStorage{
		client:    client,
		tableName: tableName,
		userID:    userID,
	}
}

// GetDeviceID returns a unique device identifier
func GetDeviceID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

func (ds *DynamoDBStorage) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("USER#%s", ds.userID)},
		"SK": &types.AttributeValueMemberS{Value: "PAD"},
	}
}

// SavePad writes the pad if the remote version still equals expectedVersion.
func (ds *DynamoDBStorage) SavePad(ctx context.Context, rec *PadRecord, expectedVersion int64) error {
	item := DynamoDBItem{
		PK:         fmt.Sprintf("USER#%s", ds.userID),
		SK:         "PAD",
		PadID:      rec.PadID,
		Envelope:   rec.Envelope,
		Version:    rec.Version,
		ModifiedAt: rec.ModifiedAt,
		DeviceID:   GetDeviceID(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	// Conditional write to prevent overwriting newer versions
	input := &dynamodb.PutItemInput{
		TableName:           aws.String(ds.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(version) OR version = :expectedVersion"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expectedVersion": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	}

	if _, err := ds.client.PutItem(ctx, input); err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return fmt.Errorf("%w: remote pad has been updated", ErrVersionConflict)
		}
		return fmt.Errorf("%w: failed to save pad: %v", ErrStorageFailure, err)
	}

	return nil
}

// LoadPad loads the pad from DynamoDB
func (ds *DynamoDBStorage) LoadPad(ctx context.Context) (*PadRecord, error) {
	result, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(ds.tableName),
		Key:            ds.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get pad from DynamoDB: %v", ErrStorageFailure, err)
	}

	if result.Item == nil {
		return nil, ErrPadNotFound
	}

	var item DynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return &PadRecord{
		PadID:      item.PadID,
		Envelope:   item.Envelope,
		Version:    item.Version,
		ModifiedAt: item.ModifiedAt,
	}, nil
}

// SyncPad reconciles local with the remote pad and returns the winner.
// The higher version wins. On equal versions with different envelopes the
// later ModifiedAt wins, and local wins when the timestamps also tie.
func (ds *DynamoDBStorage) SyncPad(ctx context.Context, local *PadRecord) (*PadRecord, error) {
	remote, err := ds.LoadPad(ctx)
	if err != nil {
		// If remote doesn't exist, push local
		if errors.Is(err, ErrPadNotFound) {
			return local, ds.SavePad(ctx, local, 0)
		}
		return nil, err
	}

	if local.Version == remote.Version {
		if local.Envelope == remote.Envelope {
			return local, nil
		}
		if remote.NewerThan(local) {
			return remote, nil
		}
	}

	if local.Version >= remote.Version {
		if err := ds.SavePad(ctx, local, remote.Version); err != nil {
			return nil, err
		}
		return local, nil
	}

	// Remote is newer, return remote
	return remote, nil
}
