package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// VPCMapper emits one row per VPC, addressed by its CIDR block.
type VPCMapper struct{ typeSet }

func NewVPCMapper() *VPCMapper {
	return &VPCMapper{typeSet{"AWS::EC2::VPC"}}
}

func (m *VPCMapper) Name() string { return "vpc" }

func (m *VPCMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapVPC)
}

func (m *VPCMapper) mapVPC(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")

	rec := baseRecord(f, res, "VPC")
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.IPAddress = models.String(f.str(cfg, "cidrBlock"))
	rec.IsVirtual = models.Yes
	rec.IsPublic = models.Yes
	rec.SoftwareVendor = models.String(awsVendor)
	rec.BaselineConfig = models.String(f.str(res.Attributes, "configurationStateId"))
	rec.NetworkID = models.String(f.str(cfg, "vpcId"))
	rec.Location = models.String(f.str(res.Attributes, "awsRegion"))
	if f.err != nil {
		return nil, f.err
	}
	return []models.InventoryRecord{rec}, nil
}
