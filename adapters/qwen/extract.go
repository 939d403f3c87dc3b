package qwen

import (
	"fmt"

	"github.com/voxkit/qwentts/domain/entities"
)

// ExtractArtifact pulls the synthesized audio's URL out of a terminal
// event. The completion payload nests it at output.data[0].url. A
// failed event yields a JobFailedError carrying whatever reason the
// service attached; a completed event without the URL yields
// ErrMissingArtifact. The function performs no I/O.
func ExtractArtifact(event entities.StreamEvent) (string, error) {
	switch event.Type {
	case entities.EventCompleted:
	case entities.EventFailed:
		return "", &JobFailedError{Reason: failureReason(event.Payload)}
	default:
		return "", fmt.Errorf("cannot extract artifact from %s event", event.Type)
	}

	output, _ := event.Payload["output"].(map[string]interface{})
	data, _ := output["data"].([]interface{})
	if len(data) == 0 {
		return "", ErrMissingArtifact
	}

	audioInfo, _ := data[0].(map[string]interface{})
	audioURL, _ := audioInfo["url"].(string)
	if audioURL == "" {
		return "", ErrMissingArtifact
	}

	return audioURL, nil
}

// failureReason digs the error description out of a failure payload.
// The service reports it either inside the output object or at the top
// level, depending on where the job fell over.
func failureReason(payload map[string]interface{}) string {
	if output, ok := payload["output"].(map[string]interface{}); ok {
		if reason, ok := output["error"].(string); ok && reason != "" {
			return reason
		}
	}
	if reason, ok := payload["error"].(string); ok {
		return reason
	}
	return ""
}
