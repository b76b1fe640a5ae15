// Package idhash derives deterministic identifiers for synthesized insights.
package idhash

import (
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// AlertID computes a deterministic alert id.
// Formula: base58(SHA256(alert_type|entity_ref|metric_label|metric_value))
// entityRef is empty for portfolio-level alerts.
func AlertID(
	alertType string,
	entityRef string,
	metricLabel string,
	metricValue float64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s",
		alertType,
		entityRef,
		metricLabel,
		strconv.FormatFloat(metricValue, 'f', 4, 64),
	)
	return encode(data)
}

func encode(data string) string {
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
