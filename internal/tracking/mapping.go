package tracking

import "github.com/iliamunaev/storefront-mock/internal/model"

var remoteToStage = map[model.RemoteStatus]model.TrackingStage{
	model.RemoteCreated:        model.StageCreated,
	model.RemotePreparing:      model.StagePreparing,
	model.RemoteOutForDelivery: model.StageTransit,
	model.RemoteDelivered:      model.StageDelivered,
}

// MapRemote converts a remote status to the local tracking stage.
func MapRemote(s model.RemoteStatus) (model.TrackingStage, bool) {
	st, ok := remoteToStage[s]
	return st, ok
}

// mergeRider overlays the non-empty fields of next onto prev.
func mergeRider(prev model.Rider, next *model.Rider) model.Rider {
	if next == nil {
		return prev
	}
	if next.Name != "" {
		prev.Name = next.Name
	}
	if next.Phone != "" {
		prev.Phone = next.Phone
	}
	if next.ChatID != "" {
		prev.ChatID = next.ChatID
	}
	return prev
}
