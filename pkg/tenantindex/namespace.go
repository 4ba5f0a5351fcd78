package tenantindex

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Namespace derives the logical partition for one organization. Pure and
// deterministic: the same org always maps to the same namespace, and the
// 8-hex-char digest keeps collisions negligible for realistic tenant counts.
func Namespace(orgID string) string {
	normalized := strings.ReplaceAll(orgID, "-", "")
	sum := md5.Sum([]byte(normalized))
	short := hex.EncodeToString(sum[:])[:8]
	return "org_" + short + "_docs"
}
