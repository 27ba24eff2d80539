package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// RDSInstanceMapper emits one row per relational database instance.
type RDSInstanceMapper struct{ typeSet }

func NewRDSInstanceMapper() *RDSInstanceMapper {
	return &RDSInstanceMapper{typeSet{"AWS::RDS::DBInstance"}}
}

func (m *RDSInstanceMapper) Name() string { return "rds-instance" }

func (m *RDSInstanceMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapInstance)
}

func (m *RDSInstanceMapper) mapInstance(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")

	// Instances outside a VPC have no subnet group.
	var vpcID string
	if group, ok := cfg.Map("dBSubnetGroup"); ok {
		vpcID, _ = group.String("vpcId")
	}

	rec := baseRecord(f, res, "RDS")
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.IsVirtual = models.Yes
	rec.SoftwareVendor = models.String(awsVendor)
	rec.AuthenticatedScanPlanned = models.No
	rec.Purpose = models.String(models.RequiresManualInput)
	rec.IsPublic = models.YesNoFrom(f.flag(cfg, "publiclyAccessible"))
	rec.HardwareModel = models.String(f.str(cfg, "dBInstanceClass"))
	rec.SoftwareProductName = models.String(f.str(cfg, "engine") + "-" + f.str(cfg, "engineVersion"))
	rec.NetworkID = models.String(vpcID)
	rec.Location = models.String(f.str(res.Attributes, "awsRegion"))
	if f.err != nil {
		return nil, f.err
	}
	return []models.InventoryRecord{rec}, nil
}
