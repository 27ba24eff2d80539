package inventory

import (
	"fmt"
	"strings"
)

// projection is the fixed set of fields every query selects. The mappers
// read nothing outside it.
var projection = []string{
	"arn",
	"resourceName",
	"resourceId",
	"resourceType",
	"configuration",
	"supplementaryConfiguration",
	"configurationStateId",
	"tags",
	"awsRegion",
}

// BuildExpression returns the advanced-query expression selecting the
// projection for every resource whose type is in types.
func BuildExpression(types []string) (string, error) {
	if len(types) == 0 {
		return "", fmt.Errorf("build query expression: no resource types")
	}
	quoted := make([]string, len(types))
	for i, t := range types {
		if strings.ContainsAny(t, "'\\") {
			return "", fmt.Errorf("build query expression: invalid resource type %q", t)
		}
		quoted[i] = "'" + t + "'"
	}
	return fmt.Sprintf("SELECT %s WHERE resourceType IN (%s)",
		strings.Join(projection, ", "),
		strings.Join(quoted, ", "),
	), nil
}
