package perception

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"traffic-worker-go/internal/models"
)

// parseObjects reads the Track response. Detections the tracker has not
// assigned an id to yet are skipped.
func parseObjects(resp *structpb.Struct) ([]models.TrackedObject, error) {
	list := resp.GetFields()["objects"].GetListValue()
	if list == nil {
		return []models.TrackedObject{}, nil
	}

	objects := make([]models.TrackedObject, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		if fields == nil {
			return nil, fmt.Errorf("object %d is not a struct", i)
		}

		idValue, ok := fields["track_id"]
		if !ok {
			continue
		}
		if _, isNull := idValue.GetKind().(*structpb.Value_NullValue); isNull {
			continue
		}

		box := fields["bbox"].GetListValue().GetValues()
		if len(box) != 4 {
			return nil, fmt.Errorf("object %d has %d bbox values, want 4", i, len(box))
		}

		objects = append(objects, models.TrackedObject{
			TrackID: int(idValue.GetNumberValue()),
			BBox: models.BBox{
				X1: int(box[0].GetNumberValue()),
				Y1: int(box[1].GetNumberValue()),
				X2: int(box[2].GetNumberValue()),
				Y2: int(box[3].GetNumberValue()),
			},
			ClassID:    int(fields["class_id"].GetNumberValue()),
			Confidence: fields["confidence"].GetNumberValue(),
			Plate:      fields["plate"].GetStringValue(),
		})
	}
	return objects, nil
}

func parseVerdict(resp *structpb.Struct) (models.Verdict, error) {
	fields := resp.GetFields()
	label, ok := fields["label"]
	if !ok {
		return models.Verdict{}, fmt.Errorf("classifier response has no label")
	}
	return models.Verdict{
		Label:      label.GetStringValue(),
		Confidence: fields["confidence"].GetNumberValue(),
	}, nil
}
