package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/panotour/internal/domain/scenegraph"
	"github.com/okian/panotour/pkg/idgen"
)

// Config is a pannellum multi-scene tour configuration.
type Config struct {
	Default DefaultConfig          `json:"default"`
	Scenes  map[string]SceneConfig `json:"scenes"`
}

// DefaultConfig holds the tour-wide pannellum settings.
type DefaultConfig struct {
	FirstScene        string `json:"firstScene"`
	SceneFadeDuration int    `json:"sceneFadeDuration"`
	AutoLoad          bool   `json:"autoLoad"`
}

// SceneConfig is one pannellum scene.
type SceneConfig struct {
	Type     string          `json:"type"`
	Panorama string          `json:"panorama"`
	Pitch    float64         `json:"pitch"`
	Yaw      float64         `json:"yaw"`
	HFOV     float64         `json:"hfov"`
	HotSpots []HotSpotConfig `json:"hotSpots"`
}

// HotSpotConfig is one pannellum scene-link hot spot.
type HotSpotConfig struct {
	Pitch   float64 `json:"pitch"`
	Yaw     float64 `json:"yaw"`
	Type    string  `json:"type"`
	Text    string  `json:"text"`
	SceneID string  `json:"sceneId"`
}

// BuildConfig converts a description into the shape pannellum consumes.
func BuildConfig(desc scenegraph.Description, autoLoad bool) Config {
	cfg := Config{
		Default: DefaultConfig{
			FirstScene:        desc.FirstScene,
			SceneFadeDuration: desc.FadeDurationMs,
			AutoLoad:          autoLoad,
		},
		Scenes: make(map[string]SceneConfig, len(desc.Scenes)),
	}
	for id, s := range desc.Scenes {
		spots := make([]HotSpotConfig, 0, len(s.Hotspots))
		for _, h := range s.Hotspots {
			spots = append(spots, HotSpotConfig{
				Pitch:   h.Pitch,
				Yaw:     h.Yaw,
				Type:    "scene",
				Text:    h.Label,
				SceneID: h.TargetSceneID,
			})
		}
		cfg.Scenes[id] = SceneConfig{
			Type:     "equirectangular",
			Panorama: s.Image,
			Pitch:    s.Pitch,
			Yaw:      s.Yaw,
			HFOV:     s.HFOV,
			HotSpots: spots,
		}
	}
	return cfg
}

// Pannellum is a Renderer whose instances live in the browser: it keeps the
// config of the latest instance per container for the tour page to fetch and
// routes clicks posted back by the page to the instance's callback.
type Pannellum struct {
	mu          sync.Mutex
	ready       bool
	autoLoad    bool
	newID       idgen.Generator
	live        map[string]*pannellumHandle
	byContainer map[string]*pannellumHandle
}

var _ Renderer = (*Pannellum)(nil)

// NewPannellum creates a renderer. It is unavailable until Init is called.
func NewPannellum(opts ...PannellumOption) *Pannellum {
	p := &Pannellum{
		autoLoad:    true,
		newID:       idgen.Viewer(),
		live:        make(map[string]*pannellumHandle),
		byContainer: make(map[string]*pannellumHandle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init makes the renderer available.
func (p *Pannellum) Init() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
}

// Available implements Renderer.
func (p *Pannellum) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// CreateViewer implements Renderer.
func (p *Pannellum) CreateViewer(ctx context.Context, container string, desc scenegraph.Description) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := BuildConfig(desc, p.autoLoad)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return nil, ErrUnavailable
	}
	h := &pannellumHandle{id: p.newID(), container: container, config: cfg, owner: p}
	p.live[h.id] = h
	p.byContainer[container] = h
	return h, nil
}

// Current returns the live instance mounted on container.
func (p *Pannellum) Current(container string) (string, Config, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.byContainer[container]
	if !ok {
		return "", Config{}, false
	}
	return h.id, h.config, true
}

// Live returns the number of unreleased instances.
func (p *Pannellum) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Click delivers a click to the instance handleID. The callback runs without
// the renderer lock held, so it may create or release viewers.
func (p *Pannellum) Click(_ context.Context, handleID string, pitch, yaw float64) error {
	p.mu.Lock()
	h, ok := p.live[handleID]
	var fn ClickFunc
	if ok {
		fn = h.onClick
	}
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("click on %s: %w", handleID, ErrStaleViewer)
	}
	if fn != nil {
		fn(pitch, yaw)
	}
	return nil
}

func (p *Pannellum) release(h *pannellumHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.live[h.id]; !ok {
		return
	}
	delete(p.live, h.id)
	if p.byContainer[h.container] == h {
		delete(p.byContainer, h.container)
	}
}

type pannellumHandle struct {
	id        string
	container string
	config    Config
	onClick   ClickFunc // guarded by owner.mu
	owner     *Pannellum
}

func (h *pannellumHandle) ID() string { return h.id }

func (h *pannellumHandle) OnClick(fn ClickFunc) {
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	h.onClick = fn
}

func (h *pannellumHandle) Release() { h.owner.release(h) }
