// Package brain provides clients for exported-brain predictor services.
// A predictor is an independently trained decision policy ("concept")
// serving control actions over HTTP, one request per control iteration.
package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/plateworks/moab-session/internal/httputil"
)

// Action is a control frame returned by a predictor. Controls the
// predictor did not supply stay nil; the caller keeps the simulator's
// current value for those.
type Action struct {
	InputRoll    *float64 `json:"input_roll,omitempty"`
	InputPitch   *float64 `json:"input_pitch,omitempty"`
	InputHeightZ *float64 `json:"input_height_z,omitempty"`
}

// Predictor is the decision-service contract: one observation in, one
// control frame out, synchronous.
type Predictor interface {
	GetAction(ctx context.Context, state map[string]float64, iteration int) (Action, error)
}

// HTTPPredictor queries an exported brain container over its prediction
// endpoint. The connection is long-lived: one predictor per concept for
// the process lifetime.
//
// With ControlPeriod > 1 the predictor only queries the service on
// control iterations (iteration % period == 0) and replays its last
// action in between.
type HTTPPredictor struct {
	BaseURL       string
	ControlPeriod int
	Client        httputil.Doer

	lastAction Action
	haveLast   bool
}

// NewHTTPPredictor creates a predictor for the service at baseURL with a
// control period of one (query every iteration).
func NewHTTPPredictor(baseURL string, client httputil.Doer) *HTTPPredictor {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPPredictor{BaseURL: baseURL, ControlPeriod: 1, Client: client}
}

// isControlIteration reports whether the predictor should be queried on
// this iteration rather than replaying its last action.
func (p *HTTPPredictor) isControlIteration(iteration int) bool {
	period := p.ControlPeriod
	if period <= 1 {
		return true
	}
	return iteration%period == 0
}

// GetAction fetches a control action for the given state.
func (p *HTTPPredictor) GetAction(ctx context.Context, state map[string]float64, iteration int) (Action, error) {
	if !p.isControlIteration(iteration) && p.haveLast {
		return p.lastAction, nil
	}

	body, err := json.Marshal(state)
	if err != nil {
		return Action{}, fmt.Errorf("failed to encode state: %w", err)
	}

	// Exported brains take the state as a JSON body on a GET request.
	url := p.BaseURL + "/v1/prediction"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return Action{}, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return Action{}, fmt.Errorf("predictor %s unreachable: %w", p.BaseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return Action{}, fmt.Errorf("predictor %s returned status %d: %s", p.BaseURL, resp.StatusCode, b)
	}

	var action Action
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		return Action{}, fmt.Errorf("failed to decode prediction from %s: %w", p.BaseURL, err)
	}

	p.lastAction = action
	p.haveLast = true
	return action, nil
}
