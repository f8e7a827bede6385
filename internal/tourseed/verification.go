package tourseed

import (
	"context"
	"fmt"

	"github.com/okian/panotour/pkg/logger"
)

// verifySceneGraph checks that every linked panorama is a scene and that
// each carries a hotspot to its successor in the ring.
func verifySceneGraph(ctx context.Context, client *HTTPClient, ids []string) (sceneGraph, error) {
	var g sceneGraph
	if _, err := client.Get(ctx, "/api/scene-graph", &g); err != nil {
		return g, err
	}
	if err := checkRing(g, ids); err != nil {
		return g, err
	}

	var tour struct {
		ActiveID string `json:"active_id"`
	}
	if _, err := client.Get(ctx, "/api/panoramas", &tour); err != nil {
		return g, err
	}
	if tour.ActiveID != g.FirstScene {
		return g, fmt.Errorf("first scene %s is not the active panorama %s", g.FirstScene, tour.ActiveID)
	}
	logger.Get().Info(ctx, "scene graph verified",
		logger.Int("scenes", len(g.Scenes)),
		logger.String("firstScene", g.FirstScene))
	return g, nil
}

func checkRing(g sceneGraph, ids []string) error {
	if g.FirstScene == "" {
		return fmt.Errorf("scene graph has no first scene")
	}
	if _, ok := g.Scenes[g.FirstScene]; !ok {
		return fmt.Errorf("first scene %s is not a scene", g.FirstScene)
	}
	for i, id := range ids {
		s, ok := g.Scenes[id]
		if !ok {
			return fmt.Errorf("panorama %s missing from scene graph", id)
		}
		next := ids[(i+1)%len(ids)]
		found := false
		for _, h := range s.Hotspots {
			if h.TargetSceneID == next {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("scene %s has no hotspot to %s", id, next)
		}
	}
	return nil
}
