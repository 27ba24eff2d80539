package mappers

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// EC2InstanceMapper emits one row per (network interface, private address)
// pair of an EC2 instance.
type EC2InstanceMapper struct{ typeSet }

func NewEC2InstanceMapper() *EC2InstanceMapper {
	return &EC2InstanceMapper{typeSet{"AWS::EC2::Instance"}}
}

func (m *EC2InstanceMapper) Name() string { return "ec2-instance" }

func (m *EC2InstanceMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapInstance)
}

// mapInstance builds the rows. The row's ip_address is the private address,
// followed by ",<public>" when that address has an associated public IP.
// is_public and dns_name come from the instance-level public DNS name and
// are therefore identical on every row of the instance.
func (m *EC2InstanceMapper) mapInstance(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")
	nics := f.list(cfg, "networkInterfaces")
	instanceID := f.str(cfg, "instanceId")
	imageID := f.str(cfg, "imageId")
	instanceType := f.str(cfg, "instanceType")
	vpcID := f.str(cfg, "vpcId")

	isPublic := models.No
	dnsName, _ := cfg.String("publicDnsName")
	if dnsName != "" {
		isPublic = models.Yes
	} else {
		dnsName = f.str(cfg, "privateDnsName")
	}

	base := baseRecord(f, res, "EC2")
	if f.err != nil {
		return nil, f.err
	}

	var records []models.InventoryRecord
	for i, rawNIC := range nics {
		nic, ok := models.AsAttributes(rawNIC)
		if !ok {
			return nil, fmt.Errorf("networkInterfaces[%d]: not an object", i)
		}
		mac := f.str(nic, "macAddress")
		addrs := f.list(nic, "privateIpAddresses")
		if f.err != nil {
			return nil, fmt.Errorf("networkInterfaces[%d]: %w", i, f.err)
		}

		for j, rawAddr := range addrs {
			addr, ok := models.AsAttributes(rawAddr)
			if !ok {
				return nil, fmt.Errorf("networkInterfaces[%d].privateIpAddresses[%d]: not an object", i, j)
			}
			ip := f.str(addr, "privateIpAddress")
			if f.err != nil {
				return nil, fmt.Errorf("networkInterfaces[%d].privateIpAddresses[%d]: %w", i, j, f.err)
			}
			if public, ok := addr.String("association", "publicIp"); ok && public != "" {
				ip += "," + public
			}

			rec := base.Clone()
			rec.UniqueID = models.String(instanceID)
			rec.IPAddress = models.String(ip)
			rec.IsVirtual = models.Yes
			rec.AuthenticatedScanPlanned = models.Yes
			rec.InLatestScan = models.String(models.RequiresManualInput)
			rec.SoftwareVendor = models.String(awsVendor)
			rec.MACAddress = models.String(mac)
			rec.BaselineConfig = models.String(imageID)
			rec.HardwareModel = models.String(instanceType)
			rec.NetworkID = models.String(vpcID)
			rec.DNSName = models.String(dnsName)
			rec.IsPublic = isPublic
			records = append(records, rec)
		}
	}
	return records, nil
}
