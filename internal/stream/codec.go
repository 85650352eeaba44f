// Package stream carries scene snapshots to browser renderers and control
// messages back, over websockets with protobuf Struct payloads.
package stream

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"drivesim/internal/sim"
)

// ErrUnknownAction is returned for control messages with an unsupported
// action.
var ErrUnknownAction = errors.New("unknown control action")

// Action names a control request sent by a client.
type Action string

const (
	ActionPause     Action = "pause"
	ActionResume    Action = "resume"
	ActionExclusion Action = "exclusion"
	ActionPick      Action = "pick"
)

// Control is a decoded client request.
type Control struct {
	Action  Action
	Enabled bool
	Handle  string
}

// EncodeSnapshot serializes a snapshot as a protobuf Struct.
func EncodeSnapshot(snap sim.Snapshot) ([]byte, error) {
	agents := make([]interface{}, 0, len(snap.Agents))
	for _, a := range snap.Agents {
		agents = append(agents, map[string]interface{}{
			"id":       a.ID,
			"name":     a.Name,
			"color":    []interface{}{a.Color[0], a.Color[1], a.Color[2]},
			"position": []interface{}{a.Position[0], a.Position[1], a.Position[2]},
			"yaw":      a.Yaw,
			"pitch":    a.Pitch,
			"battery":  a.Battery,
			"progress": a.Progress,
		})
	}

	return marshal(map[string]interface{}{
		"type":      "snapshot",
		"scene":     snap.Scene,
		"strategy":  string(snap.Strategy),
		"tick":      snap.Tick,
		"paused":    snap.Paused,
		"exclusion": snap.Exclusion,
		"tickRate":  snap.TickRate,
		"agents":    agents,
	})
}

// EncodeInspection serializes the overlay contents for a picked agent.
func EncodeInspection(in sim.Inspection) ([]byte, error) {
	return marshal(map[string]interface{}{
		"type":      "inspect",
		"name":      in.Name,
		"attribute": in.Attribute,
	})
}

// EncodeError serializes an error reply for a single client.
func EncodeError(err error) ([]byte, error) {
	return marshal(map[string]interface{}{
		"type":    "error",
		"message": err.Error(),
	})
}

// EncodeControl serializes a control request. Clients written in Go use it;
// the browser builds the same Struct.
func EncodeControl(c Control) ([]byte, error) {
	fields := map[string]interface{}{"action": string(c.Action)}
	switch c.Action {
	case ActionExclusion:
		fields["enabled"] = c.Enabled
	case ActionPick:
		fields["handle"] = c.Handle
	}
	return marshal(fields)
}

// DecodeControl parses a control request.
func DecodeControl(data []byte) (Control, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return Control{}, fmt.Errorf("decode control: %w", err)
	}
	fields := msg.GetFields()

	c := Control{Action: Action(fields["action"].GetStringValue())}
	switch c.Action {
	case ActionPause, ActionResume:
	case ActionExclusion:
		c.Enabled = fields["enabled"].GetBoolValue()
	case ActionPick:
		c.Handle = fields["handle"].GetStringValue()
		if c.Handle == "" {
			return Control{}, fmt.Errorf("decode control: pick without handle")
		}
	default:
		return Control{}, fmt.Errorf("%w: %q", ErrUnknownAction, c.Action)
	}
	return c, nil
}

func marshal(fields map[string]interface{}) ([]byte, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}
	return proto.Marshal(msg)
}
