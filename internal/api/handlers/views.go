package handlers

import (
	"tour-playback-service/internal/api/dto"
	"tour-playback-service/internal/domain"
	"tour-playback-service/internal/engine"
	"tour-playback-service/internal/services"
)

func locationResponses(locs []domain.Location, ov domain.Overlay) []dto.LocationResponse {
	out := make([]dto.LocationResponse, 0, len(locs))
	for _, l := range locs {
		class := ov.WeatherAt(l.Index)
		lr := dto.LocationResponse{
			Index:       l.Index,
			Name:        l.Name,
			Weather:     class.Label,
			WeatherCode: int(class.Code),
		}
		if d, ok := ov.DemandAt(l.Index); ok {
			lr.Demand = &d
		}
		out = append(out, lr)
	}
	return out
}

func viewResponse(v services.View) dto.RunViewResponse {
	res := dto.RunViewResponse{
		Phase:         string(v.Phase),
		RunID:         v.RunID,
		Generation:    v.Playback.Generation,
		Running:       v.Playback.Running,
		Locations:     locationResponses(v.Locations, v.Overlay),
		Tour:          []int(v.Tour),
		Trail:         make([]dto.EdgeResponse, 0, len(v.Playback.Trail)),
		Cost:          v.Cost,
		TotalSupply:   v.TotalSupply,
		SupplyWeight:  v.SupplyWeight,
		StressFactor:  v.StressFactor,
		TotalWeight:   v.TotalWeight,
		WeatherMatrix: v.WeatherMatrix,
		LastError:     v.LastError,
		Version:       v.Version,
	}
	if res.Tour == nil {
		res.Tour = []int{}
	}
	for _, e := range v.Playback.Trail {
		res.Trail = append(res.Trail, dto.EdgeResponse{From: e.From, To: e.To})
	}

	if a := v.Playback.Animation; a != nil {
		ar := &dto.AnimationResponse{
			EdgeIndex: a.EdgeIndex,
			From:      a.Edge.From,
			To:        a.Edge.To,
			Progress:  a.Progress,
		}
		if layout, err := engine.NewLayout(len(v.Locations)); err == nil && inLayout(layout, a.Edge) {
			p := layout.Along(a.Edge.From, a.Edge.To, a.Progress)
			ar.X, ar.Y = p.X, p.Y
		}
		res.Animation = ar
	}

	return res
}

func inLayout(l *engine.Layout, e domain.Edge) bool {
	return e.From >= 0 && e.From < l.Len() && e.To >= 0 && e.To < l.Len()
}

func runRecordResponse(rec *domain.RunRecord) dto.RunRecordResponse {
	return dto.RunRecordResponse{
		RunID:        rec.RunID,
		Status:       string(rec.Status),
		Cities:       rec.Cities,
		Tour:         []int(rec.Tour),
		Cost:         rec.Cost,
		TotalSupply:  rec.TotalSupply,
		SupplyWeight: rec.SupplyWeight,
		StressFactor: rec.StressFactor,
		CreatedAt:    rec.CreatedAt,
		FinishedAt:   rec.FinishedAt,
	}
}
