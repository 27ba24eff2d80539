package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// LambdaFunctionMapper emits one row per function. The code hash identifies
// the deployed build; the business purpose must be filled in by hand.
type LambdaFunctionMapper struct {
	typeSet
	vendor string
}

// NewLambdaFunctionMapper returns a mapper that reports vendor as the
// functions' software vendor. An empty vendor defaults to "AWS".
func NewLambdaFunctionMapper(vendor string) *LambdaFunctionMapper {
	if vendor == "" {
		vendor = awsVendor
	}
	return &LambdaFunctionMapper{typeSet: typeSet{"AWS::Lambda::Function"}, vendor: vendor}
}

func (m *LambdaFunctionMapper) Name() string { return "lambda-function" }

func (m *LambdaFunctionMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapFunction)
}

func (m *LambdaFunctionMapper) mapFunction(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")

	rec := baseRecord(f, res, "Lambda Function")
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.IsVirtual = models.Yes
	rec.IsPublic = models.No
	rec.SoftwareVendor = models.String(m.vendor)
	rec.SoftwareProductName = models.String("sha256: " + f.str(cfg, "codeSha256"))
	rec.Purpose = models.String(models.RequiresManualInput)
	rec.Location = models.String(f.str(res.Attributes, "awsRegion"))
	// Container-image functions have no runtime.
	if runtime, ok := cfg.String("runtime"); ok {
		rec.BaselineConfig = models.String(runtime)
	}
	if f.err != nil {
		return nil, f.err
	}
	return []models.InventoryRecord{rec}, nil
}
