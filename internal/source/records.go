package source

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"caramelo/internal/metrics"
	"caramelo/internal/models"
)

// decodeRecords decodes each record on its own. A record that does not
// decode is logged, counted and left out; the rest of the batch is kept.
func decodeRecords(raws []json.RawMessage) []models.Packet {
	packets := make([]models.Packet, 0, len(raws))
	for i, raw := range raws {
		var p models.Packet
		if err := json.Unmarshal(raw, &p); err != nil {
			metrics.RecordsRejectedTotal.Inc()
			log.WithFields(log.Fields{
				"index":  i,
				"record": truncate(raw, 128),
			}).WithError(err).Warn("Skipping undecodable packet record")
			continue
		}
		packets = append(packets, p)
	}
	return packets
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
