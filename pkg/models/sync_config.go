// pkg/models/sync_config.go
package models

import "time"

// SyncConfig stores background job bookkeeping under sync_config/{key}.
type SyncConfig struct {
	Key   string `json:"key" mapstructure:"key"`
	Value string `json:"value" mapstructure:"value"`
}

// OrphanRecord marks an identity whose profile write failed and whose
// deletion could not be completed inline. The sweeper retries it.
type OrphanRecord struct {
	UID       string    `json:"uid" mapstructure:"uid"`
	Email     string    `json:"email" mapstructure:"email"`
	Reason    string    `json:"reason" mapstructure:"reason"`
	Attempts  int       `json:"attempts" mapstructure:"attempts"`
	CreatedAt time.Time `json:"createdAt" mapstructure:"createdAt"`
}

func (o *OrphanRecord) Document() map[string]interface{} {
	return map[string]interface{}{
		"uid":       o.UID,
		"email":     o.Email,
		"reason":    o.Reason,
		"attempts":  o.Attempts,
		"createdAt": o.CreatedAt,
	}
}

func DecodeOrphan(doc map[string]interface{}) (*OrphanRecord, error) {
	rec := &OrphanRecord{}
	if err := decodeDocument(doc, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
