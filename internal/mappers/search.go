package mappers

import (
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

const openSearchType = "AWS::OpenSearch::Domain"

// SearchDomainMapper emits one row per Elasticsearch or OpenSearch domain.
// The engine version is recorded as the baseline configuration.
type SearchDomainMapper struct{ typeSet }

func NewSearchDomainMapper() *SearchDomainMapper {
	return &SearchDomainMapper{typeSet{"AWS::Elasticsearch::Domain", openSearchType}}
}

func (m *SearchDomainMapper) Name() string { return "search-domain" }

func (m *SearchDomainMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapDomain)
}

func (m *SearchDomainMapper) mapDomain(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	cfg := f.obj(res.Attributes, "configuration")

	product := "Elasticsearch"
	versionKey := "elasticsearchVersion"
	if res.Type() == openSearchType {
		product = "OpenSearch"
		versionKey = "engineVersion"
	}

	rec := baseRecord(f, res, product)
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.BaselineConfig = models.String(f.str(cfg, versionKey))
	rec.IsVirtual = models.Yes
	rec.SoftwareVendor = models.String(awsVendor)
	rec.SoftwareProductName = models.String(product)
	rec.Location = models.String(f.str(res.Attributes, "awsRegion"))
	if f.err != nil {
		return nil, f.err
	}

	// Domains placed in a VPC are private; the rest expose a public endpoint.
	if vpcID, ok := domainVPC(cfg); ok {
		rec.NetworkID = models.String(vpcID)
		rec.IsPublic = models.No
	} else {
		rec.IsPublic = models.Yes
	}
	if endpoint, ok := cfg.String("endpoint"); ok && endpoint != "" {
		rec.DNSName = models.String(endpoint)
	}
	return []models.InventoryRecord{rec}, nil
}

// domainVPC returns the VPC id from the domain's VPC options. The service
// has used several spellings for these keys across versions.
func domainVPC(cfg models.Attributes) (string, bool) {
	for _, optsKey := range []string{"vPCOptions", "vpcOptions", "VPCOptions"} {
		opts, ok := cfg.Map(optsKey)
		if !ok {
			continue
		}
		for _, idKey := range []string{"vPCId", "vpcId", "VPCId"} {
			if id, ok := opts.String(idKey); ok && id != "" {
				return id, true
			}
		}
	}
	return "", false
}
