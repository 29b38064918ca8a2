package scheduler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const TaskStorageCleanup = "storage.cleanup"

// StorageCleanupPayload names an object left behind by a failed document attach.
type StorageCleanupPayload struct {
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"objectKey"`
	LeadID    string `json:"leadId,omitempty"`
}

func NewStorageCleanupTask(payload StorageCleanupPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.Bucket) == "" || strings.TrimSpace(payload.ObjectKey) == "" {
		return nil, fmt.Errorf("storage cleanup requires bucket and object key")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStorageCleanup, data), nil
}

func ParseStorageCleanupPayload(task *asynq.Task) (StorageCleanupPayload, error) {
	var payload StorageCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StorageCleanupPayload{}, err
	}
	return payload, nil
}
