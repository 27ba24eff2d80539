package mappers

import (
	"encoding/json"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// S3BucketMapper emits one row per bucket. Public exposure and encryption
// are read from the supplementary configuration.
type S3BucketMapper struct{ typeSet }

func NewS3BucketMapper() *S3BucketMapper {
	return &S3BucketMapper{typeSet{"AWS::S3::Bucket"}}
}

func (m *S3BucketMapper) Name() string { return "s3-bucket" }

func (m *S3BucketMapper) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	return mapSupported(m, res, m.mapBucket)
}

func (m *S3BucketMapper) mapBucket(res models.ConfigResource) ([]models.InventoryRecord, error) {
	f := newFieldReader(res)
	supplementary, _ := res.Map("supplementaryConfiguration")

	comments := "Not encrypted"
	if supplementary.Has("ServerSideEncryptionConfiguration") {
		comments = "Encrypted"
	}

	rec := baseRecord(f, res, "S3")
	rec.UniqueID = models.String(f.str(res.Attributes, "arn"))
	rec.IsVirtual = models.Yes
	rec.IsPublic = bucketPublic(supplementary)
	rec.SoftwareVendor = models.String(awsVendor)
	rec.Comments = models.String(comments)
	rec.Location = models.String(f.str(res.Attributes, "awsRegion"))
	if f.err != nil {
		return nil, f.err
	}
	return []models.InventoryRecord{rec}, nil
}

// bucketPublic returns No only when a public access block is present and
// every one of its flags is true. A missing block, or a missing
// supplementary configuration, means the bucket may be public.
func bucketPublic(supplementary models.Attributes) models.YesNo {
	block, ok := supplementaryBlock(supplementary, "PublicAccessBlockConfiguration")
	if !ok {
		return models.Yes
	}
	for key := range block {
		if v, ok := block.Bool(key); !ok || !v {
			return models.Yes
		}
	}
	return models.No
}

// supplementaryBlock returns a supplementary configuration entry as an
// object. The service delivers some entries as JSON-encoded strings; those
// are decoded. An entry that cannot be decoded counts as absent.
func supplementaryBlock(supplementary models.Attributes, key string) (models.Attributes, bool) {
	v, ok := supplementary.Lookup(key)
	if !ok || v == nil {
		return nil, false
	}
	if m, ok := models.AsAttributes(v); ok {
		return m, true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return models.Attributes(m), true
}
