package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/shopspring/decimal"
)

// DynamoUpdater is the subset of the DynamoDB client used for stock updates
type DynamoUpdater interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStockStore keeps available quantity in a DynamoDB table keyed by product_id.
// Every mutation is a single UpdateItem guarded by a ConditionExpression.
type DynamoStockStore struct {
	client    DynamoUpdater
	tableName string
}

// dynamoProduct represents the DynamoDB item structure
type dynamoProduct struct {
	ProductID         string `dynamodbav:"product_id"`
	Name              string `dynamodbav:"name"`
	UnitPrice         string `dynamodbav:"unit_price"`
	AvailableQuantity int    `dynamodbav:"available_quantity"`
}

func NewDynamoStockStore(client DynamoUpdater, tableName string) *DynamoStockStore {
	return &DynamoStockStore{
		client:    client,
		tableName: tableName,
	}
}

// Decrement subtracts quantity when the condition available_quantity >= quantity holds
func (s *DynamoStockStore) Decrement(ctx context.Context, productID string, quantity int) (*model.Product, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    aws.String("SET available_quantity = available_quantity - :q"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND available_quantity >= :q"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, conditionFailed(productID, ccf.Item)
		}
		return nil, fmt.Errorf("failed to decrement stock %s: %w", productID, err)
	}

	return decodeProduct(productID, out.Attributes)
}

// conditionFailed builds the rejection from the item DynamoDB returned with the failed check
func conditionFailed(productID string, item map[string]types.AttributeValue) error {
	if len(item) == 0 {
		return &ConditionFailedError{ProductID: productID}
	}
	current, err := decodeProduct(productID, item)
	if err != nil {
		return err
	}
	return &ConditionFailedError{ProductID: productID, Current: current}
}

func decodeProduct(productID string, attrs map[string]types.AttributeValue) (*model.Product, error) {
	var item dynamoProduct
	if err := attributevalue.UnmarshalMap(attrs, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}
	price, err := decimal.NewFromString(item.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid unit_price for %s: %w", productID, err)
	}

	return &model.Product{
		ID:                item.ProductID,
		Name:              item.Name,
		UnitPrice:         price,
		AvailableQuantity: item.AvailableQuantity,
	}, nil
}

// Increment adds quantity back; the item must exist
func (s *DynamoStockStore) Increment(ctx context.Context, productID string, quantity int) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		UpdateExpression:    aws.String("SET available_quantity = available_quantity + :q"),
		ConditionExpression: aws.String("attribute_exists(product_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberN{Value: strconv.Itoa(quantity)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to increment stock %s: %w", productID, err)
	}
	return nil
}
