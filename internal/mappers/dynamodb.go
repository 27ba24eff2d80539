package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// DynamoDBTableMapper covers DynamoDB tables, the key-value and document
// store family. Tables are always virtual and never directly reachable.
type DynamoDBTableMapper struct{ typeSet }

func NewDynamoDBTableMapper() *DynamoDBTableMapper {
	return &DynamoDBTableMapper{typeSet{"AWS::DynamoDB::Table"}}
}

func (m *DynamoDBTableMapper) Name() string { return "dynamodb-table" }

func (m *DynamoDBTableMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapTable)
}

func (m *DynamoDBTableMapper) mapTable(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	rec := baseRecord(f, res, "DynamoDB")
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.IsVirtual = models.Yes
	rec.IsPublic = models.No
	rec.SoftwareVendor = models.String(awsVendor)
	rec.SoftwareProductName = models.String("DynamoDB")
	if f.err != nil {
		return nil, f.err
	}
	return []models.InventoryRecord{rec}, nil
}
