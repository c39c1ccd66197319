// Package dynamo looks API keys up in a DynamoDB table.
//
// The table is keyed by the SHA-256 of the key so plaintext keys are never
// stored:
//
//	aws dynamodb create-table \
//	  --table-name plover-api-keys \
//	  --attribute-definitions AttributeName=key_hash,AttributeType=S \
//	  --key-schema AttributeName=key_hash,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
//
// An item with a boolean "disabled" attribute set to true is rejected.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/plover/auth"
)

// Attribute names.
const (
	AttrKeyHash  = "key_hash"
	AttrDisabled = "disabled"
)

// Client is the subset of the DynamoDB API used here.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Authenticator implements auth.Authenticator against a DynamoDB table.
type Authenticator struct {
	client Client
	table  string
}

// New creates an authenticator for table.
func New(client Client, table string) *Authenticator {
	return &Authenticator{client: client, table: table}
}

// Dial creates an authenticator using the default AWS credential chain.
func Dial(ctx context.Context, table, region string) (*Authenticator, error) {
	var optFns []func(*config.LoadOptions) error
	if region != "" {
		optFns = append(optFns, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

// Authenticate implements auth.Authenticator.
func (a *Authenticator) Authenticate(ctx context.Context, key string) error {
	if key == "" {
		return auth.ErrUnauthorized
	}
	out, err := a.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(a.table),
		Key: map[string]types.AttributeValue{
			AttrKeyHash: &types.AttributeValueMemberS{Value: auth.HashKey(key)},
		},
		ProjectionExpression: aws.String(AttrKeyHash + ", " + AttrDisabled),
	})
	if err != nil {
		return fmt.Errorf("dynamo: get item: %w", err)
	}
	if len(out.Item) == 0 {
		return auth.ErrUnauthorized
	}
	if v, ok := out.Item[AttrDisabled].(*types.AttributeValueMemberBOOL); ok && v.Value {
		return auth.ErrUnauthorized
	}
	return nil
}
