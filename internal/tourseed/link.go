package tourseed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/okian/panotour/pkg/logger"
)

// linkRing joins ids into a ring: ids[i] gets a hotspot to ids[i+1], the
// last one back to the first. Every hotspot goes through the same path a
// person would take: select the panorama, start placement, click inside the
// live viewer, pick the target.
func linkRing(ctx context.Context, client *HTTPClient, ids []string, stats *Stats) error {
	if len(ids) < MinPanoramas {
		return fmt.Errorf("need at least %d panoramas to link, have %d", MinPanoramas, len(ids))
	}
	for i, origin := range ids {
		target := ids[(i+1)%len(ids)]
		yaw := normalizeYaw(float64(i) * hotspotYawStep)
		if err := placeHotspot(ctx, client, origin, target, hotspotPitch, yaw); err != nil {
			return fmt.Errorf("link %s -> %s: %w", origin, target, err)
		}
		stats.Linked++
		logger.Get().Debug(ctx, "hotspot placed",
			logger.String("origin", origin),
			logger.String("target", target),
			logger.Float64("yaw", yaw))
	}
	return nil
}

func placeHotspot(ctx context.Context, client *HTTPClient, origin, target string, pitch, yaw float64) error {
	if _, err := client.SendJSON(ctx, http.MethodPut, "/api/active", map[string]string{"id": origin}, nil); err != nil {
		return err
	}
	if _, err := client.SendJSON(ctx, http.MethodPost, "/api/placement", nil, nil); err != nil {
		return err
	}

	// Placement swaps the viewer, so the handle is read after starting.
	var v viewerState
	if _, err := client.Get(ctx, "/api/viewer", &v); err != nil {
		return err
	}
	if !v.Live {
		return fmt.Errorf("no live viewer for %s", origin)
	}

	var st placementState
	if _, err := client.SendJSON(ctx, http.MethodPost, "/api/viewer/"+v.HandleID+"/click",
		map[string]float64{"pitch": pitch, "yaw": yaw}, &st); err != nil {
		return err
	}
	if st.State != awaitingTarget {
		return fmt.Errorf("click was not taken, placement is %s", st.State)
	}

	_, err := client.SendJSON(ctx, http.MethodPost, "/api/placement/target", map[string]string{"target_id": target}, nil)
	return err
}

func normalizeYaw(yaw float64) float64 {
	for yaw > 180 {
		yaw -= 360
	}
	return yaw
}
