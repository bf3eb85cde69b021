package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// InMemoryDynamo is a process local stand in for DynamoDB that supports the
// operations in DynamoAPI for tables with a single string hash key. It is not
// intended for production use.
type InMemoryDynamo struct {
	mu     sync.Mutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	hashKey string
	items   map[string]map[string]ddbtypes.AttributeValue
}

var _ DynamoAPI = (*InMemoryDynamo)(nil)

func NewInMemoryDynamo() *InMemoryDynamo {
	return &InMemoryDynamo{tables: make(map[string]*memoryTable)}
}

func (m *InMemoryDynamo) table(name *string) (*memoryTable, error) {
	table, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &ddbtypes.ResourceNotFoundException{Message: aws.String(fmt.Sprintf("table %s not found", aws.ToString(name)))}
	}
	return table, nil
}

func (t *memoryTable) keyOf(item map[string]ddbtypes.AttributeValue) (string, error) {
	value, ok := item[t.hashKey].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing string key attribute %s", t.hashKey)
	}
	return value.Value, nil
}

func (m *InMemoryDynamo) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.TableName)
	if _, ok := m.tables[name]; ok {
		return nil, &ddbtypes.ResourceInUseException{Message: aws.String(fmt.Sprintf("table already exists: %s", name))}
	}

	var hashKey string
	for _, key := range params.KeySchema {
		if key.KeyType == ddbtypes.KeyTypeHash {
			hashKey = aws.ToString(key.AttributeName)
		}
	}
	if hashKey == "" {
		return nil, fmt.Errorf("table %s has no hash key", name)
	}

	m.tables[name] = &memoryTable{hashKey: hashKey, items: make(map[string]map[string]ddbtypes.AttributeValue)}

	return &dynamodb.CreateTableOutput{
		TableDescription: &ddbtypes.TableDescription{TableName: params.TableName, TableStatus: ddbtypes.TableStatusActive},
	}, nil
}

func (m *InMemoryDynamo) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	return &dynamodb.DescribeTableOutput{
		Table: &ddbtypes.TableDescription{
			TableName:   params.TableName,
			TableStatus: ddbtypes.TableStatusActive,
			ItemCount:   aws.Int64(int64(len(table.items))),
		},
	}, nil
}

func (m *InMemoryDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	key, err := table.keyOf(params.Item)
	if err != nil {
		return nil, err
	}

	item := make(map[string]ddbtypes.AttributeValue, len(params.Item))
	for k, v := range params.Item {
		item[k] = v
	}
	table.items[key] = item

	return &dynamodb.PutItemOutput{}, nil
}

func (m *InMemoryDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	key, err := table.keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	return &dynamodb.GetItemOutput{Item: table.items[key]}, nil
}

// Scan returns items in key order, Limit items per page.
func (m *InMemoryDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(table.items))
	for key := range table.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	start := 0
	if len(params.ExclusiveStartKey) > 0 {
		after, err := table.keyOf(params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		start = sort.SearchStrings(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}

	end := len(keys)
	if limit := int(aws.ToInt32(params.Limit)); limit > 0 && start+limit < end {
		end = start + limit
	}

	output := &dynamodb.ScanOutput{}
	for _, key := range keys[start:end] {
		output.Items = append(output.Items, table.items[key])
	}
	output.Count = int32(len(output.Items))
	output.ScannedCount = output.Count

	if end < len(keys) {
		output.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			table.hashKey: &ddbtypes.AttributeValueMemberS{Value: keys[end-1]},
		}
	}

	return output, nil
}
