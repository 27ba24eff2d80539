package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

const classicELBType = "AWS::ElasticLoadBalancing::LoadBalancer"

// LoadBalancerMapper handles classic and v2 (application, network, gateway)
// load balancers. It emits one row per distinct address found across the
// balancer's availability zones, or a single row without an address.
type LoadBalancerMapper struct{ typeSet }

func NewLoadBalancerMapper() *LoadBalancerMapper {
	return &LoadBalancerMapper{typeSet{
		classicELBType,
		"AWS::ElasticLoadBalancingV2::LoadBalancer",
	}}
}

func (m *LoadBalancerMapper) Name() string { return "load-balancer" }

func (m *LoadBalancerMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapLoadBalancer)
}

func (m *LoadBalancerMapper) mapLoadBalancer(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")

	assetType := "Load Balancer-Classic"
	if res.Type() != classicELBType {
		assetType = "Load Balancer-" + f.str(cfg, "type")
	}

	// Classic balancers spell the key "vpcid"; v2 balancers use "vpcId".
	vpcID, ok := cfg.String("vpcId")
	if !ok {
		vpcID = f.str(cfg, "vpcid")
	}

	scheme := f.str(cfg, "scheme")
	zones := f.list(cfg, "availabilityZones")

	rec := baseRecord(f, res, assetType)
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	if f.err != nil {
		return nil, f.err
	}
	rec.IsVirtual = models.Yes
	rec.SoftwareVendor = models.String(awsVendor)
	rec.IsPublic = models.YesNoFrom(scheme == "internet-facing")
	rec.NetworkID = models.String(vpcID)

	addrs := zoneAddresses(zones)
	if len(addrs) == 0 {
		return []models.InventoryRecord{rec}, nil
	}

	records := make([]models.InventoryRecord, 0, len(addrs))
	for _, ip := range addrs {
		row := rec.Clone()
		row.IPAddress = models.String(ip)
		records = append(records, row)
	}
	return records, nil
}

// zoneAddresses collects distinct loadBalancerAddresses[].ipAddress values in
// the order first seen. Classic balancers list zones as plain strings; those
// entries carry no addresses and are skipped.
func zoneAddresses(zones []any) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rawZone := range zones {
		zone, ok := models.AsAttributes(rawZone)
		if !ok {
			continue
		}
		lbAddrs, ok := zone.List("loadBalancerAddresses")
		if !ok {
			continue
		}
		for _, rawAddr := range lbAddrs {
			addr, ok := models.AsAttributes(rawAddr)
			if !ok {
				continue
			}
			ip, ok := addr.String("ipAddress")
			if !ok || ip == "" {
				continue
			}
			if _, dup := seen[ip]; dup {
				continue
			}
			seen[ip] = struct{}{}
			out = append(out, ip)
		}
	}
	return out
}
