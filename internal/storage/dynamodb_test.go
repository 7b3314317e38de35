package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamoDB keeps a single item and honours the version condition.
type fakeDynamoDB struct {
	item   map[string]types.AttributeValue
	getErr error
	puts   int
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &dynamodb.GetItemOutput{Item: f.item}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.item != nil {
		var current DynamoDBItem
		if err := attributevalue.UnmarshalMap(f.item, &current); err != nil {
			return nil, err
		}

		var expected int64
		if err := attributevalue.Unmarshal(params.ExpressionAttributeValues[":expectedVersion"], &expected); err != nil {
			return nil, err
		}

		if current.Version != expected {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
		}
	}

	f.item = params.Item
	f.puts++
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) stored(t *testing.T) DynamoDBItem {
	t.Helper()
	var item DynamoDBItem
	require.NoError(t, attributevalue.UnmarshalMap(f.item, &item))
	return item
}

func TestDynamoDBStorage_LoadPad_NotFound(t *testing.T) {
	ds := NewDynamoDBStorageWithClient(&fakeDynamoDB{}, "hoverpad", "u1")

	_, err := ds.LoadPad(context.Background())
	require.ErrorIs(t, err, ErrPadNotFound)
}

func TestDynamoDBStorage_LoadPad_ClientError(t *testing.T) {
	ds := NewDynamoDBStorageWithClient(&fakeDynamoDB{getErr: errors.New("boom")}, "hoverpad", "u1")

	_, err := ds.LoadPad(context.Background())
	require.ErrorIs(t, err, ErrStorageFailure)
}

func TestDynamoDBStorage_SaveAndLoad(t *testing.T) {
	fake := &fakeDynamoDB{}
	ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
	ctx := context.Background()

	rec := &PadRecord{PadID: "pad-1", Envelope: "ZW52ZWxvcGU=", Version: 1, ModifiedAt: "2026-10-18T10:00:00Z"}
	require.NoError(t, ds.SavePad(ctx, rec, 0))

	item := fake.stored(t)
	assert.Equal(t, "USER#u1", item.PK)
	assert.Equal(t, "PAD", item.SK)
	assert.NotEmpty(t, item.DeviceID)

	got, err := ds.LoadPad(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDynamoDBStorage_SavePad_Conflict(t *testing.T) {
	fake := &fakeDynamoDB{}
	ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
	ctx := context.Background()

	require.NoError(t, ds.SavePad(ctx, &PadRecord{PadID: "p", Version: 3}, 0))

	err := ds.SavePad(ctx, &PadRecord{PadID: "p", Version: 4}, 2)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestDynamoDBStorage_SyncPad(t *testing.T) {
	ctx := context.Background()

	t.Run("remote missing pushes local", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		local := &PadRecord{PadID: "p", Envelope: "local", Version: 2}

		got, err := ds.SyncPad(ctx, local)
		require.NoError(t, err)
		assert.Equal(t, local, got)
		assert.Equal(t, "local", fake.stored(t).Envelope)
	})

	t.Run("local newer pushes local", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		require.NoError(t, ds.SavePad(ctx, &PadRecord{PadID: "p", Envelope: "remote", Version: 1}, 0))

		local := &PadRecord{PadID: "p", Envelope: "local", Version: 2}
		got, err := ds.SyncPad(ctx, local)
		require.NoError(t, err)
		assert.Equal(t, local, got)
		assert.Equal(t, int64(2), fake.stored(t).Version)
	})

	t.Run("remote newer is returned untouched", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		require.NoError(t, ds.SavePad(ctx, &PadRecord{PadID: "p", Envelope: "remote", Version: 5}, 0))
		puts := fake.puts

		got, err := ds.SyncPad(ctx, &PadRecord{PadID: "p", Envelope: "local", Version: 2})
		require.NoError(t, err)
		assert.Equal(t, "remote", got.Envelope)
		assert.Equal(t, int64(5), got.Version)
		assert.Equal(t, puts, fake.puts)
	})

	t.Run("equal version and envelope writes nothing", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		require.NoError(t, ds.SavePad(ctx, &PadRecord{PadID: "p", Envelope: "same", Version: 3}, 0))
		puts := fake.puts

		local := &PadRecord{PadID: "p", Envelope: "same", Version: 3}
		got, err := ds.SyncPad(ctx, local)
		require.NoError(t, err)
		assert.Equal(t, local, got)
		assert.Equal(t, puts, fake.puts)
	})

	t.Run("equal version later remote edit wins", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		require.NoError(t, ds.SavePad(ctx, &PadRecord{
			PadID: "p", Envelope: "remote", Version: 3, ModifiedAt: "2026-10-18T12:00:00Z",
		}, 0))
		puts := fake.puts

		got, err := ds.SyncPad(ctx, &PadRecord{
			PadID: "p", Envelope: "local", Version: 3, ModifiedAt: "2026-10-18T11:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, "remote", got.Envelope)
		assert.Equal(t, puts, fake.puts)
		assert.Equal(t, "remote", fake.stored(t).Envelope)
	})

	t.Run("equal version later local edit is pushed", func(t *testing.T) {
		fake := &fakeDynamoDB{}
		ds := NewDynamoDBStorageWithClient(fake, "hoverpad", "u1")
		require.NoError(t, ds.SavePad(ctx, &PadRecord{
			PadID: "p", Envelope: "remote", Version: 3, ModifiedAt: "2026-10-18T11:00:00Z",
		}, 0))

		local := &PadRecord{PadID: "p", Envelope: "local", Version: 3, ModifiedAt: "2026-10-18T12:00:00Z"}
		got, err := ds.SyncPad(ctx, local)
		require.NoError(t, err)
		assert.Equal(t, local, got)
		assert.Equal(t, "local", fake.stored(t).Envelope)
	})
}
