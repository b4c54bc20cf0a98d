package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformed is returned for bodies that do not match the schema of their routing key.
var ErrMalformed = errors.New("malformed event")

const typeKey = "Tipo"

// Timestamps without a zone are produced by some publishers; they are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func subjectKey(t Type) string {
	if strings.HasPrefix(string(t), "customer.") {
		return "ClienteId"
	}

	return "PedidoId"
}

func timestampKey(t Type) string {
	switch {
	case t == OrderCancelled:
		return "DataCancelamento"
	case t.IsStatusChange():
		return "DataAtualizacao"
	default:
		return "DataCriacao"
	}
}

// Encode renders env as the flat JSON object exchanged on the wire.
func Encode(env Envelope) ([]byte, error) {
	if !env.Type.Known() {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformed, env.Type)
	}

	fields := map[string]json.RawMessage{}
	if env.Payload != nil {
		raw, err := json.Marshal(env.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("payload of %s is not an object: %w", env.Type, err)
		}
	}

	header := map[string]any{
		typeKey:                string(env.Type),
		subjectKey(env.Type):   env.SubjectID,
		timestampKey(env.Type): env.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for key, value := range header {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		fields[key] = raw
	}

	return json.Marshal(fields)
}

// Decode parses body into the concrete envelope for routingKey.
func Decode(routingKey string, body []byte) (Envelope, error) {
	t := Type(routingKey)
	if !t.Known() {
		return Envelope{}, fmt.Errorf("%w: unknown event type %q", ErrMalformed, routingKey)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var tipo string
	if err := decodeField(fields, typeKey, &tipo); err != nil {
		return Envelope{}, err
	}
	if tipo != routingKey {
		return Envelope{}, fmt.Errorf("%w: %s %q does not match routing key %q", ErrMalformed, typeKey, tipo, routingKey)
	}

	env := Envelope{Type: t}
	if err := decodeField(fields, subjectKey(t), &env.SubjectID); err != nil {
		return Envelope{}, err
	}
	if env.SubjectID == "" {
		return Envelope{}, fmt.Errorf("%w: empty %s", ErrMalformed, subjectKey(t))
	}

	var rawTimestamp string
	if err := decodeField(fields, timestampKey(t), &rawTimestamp); err != nil {
		return Envelope{}, err
	}
	ts, err := parseTimestamp(rawTimestamp)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %s: %v", ErrMalformed, timestampKey(t), err)
	}
	env.Timestamp = ts

	payload, err := decodePayload(t, body)
	if err != nil {
		return Envelope{}, err
	}
	env.Payload = payload

	return env, nil
}

func decodePayload(t Type, body []byte) (any, error) {
	switch {
	case t == OrderCreated:
		var p OrderCreatedPayload
		if err := unmarshalPayload(body, &p); err != nil {
			return nil, err
		}
		if p.Number == "" || p.CustomerID == "" || p.Status == "" {
			return nil, fmt.Errorf("%w: order.created requires NumeroPedido, ClienteId and Status", ErrMalformed)
		}

		return p, nil
	case t == OrderCancelled:
		var p OrderCancelledPayload
		if err := unmarshalPayload(body, &p); err != nil {
			return nil, err
		}
		if p.Number == "" || p.Reason == "" {
			return nil, fmt.Errorf("%w: order.cancelled requires NumeroPedido and Motivo", ErrMalformed)
		}

		return p, nil
	case t.IsStatusChange():
		var p OrderStatusChangedPayload
		if err := unmarshalPayload(body, &p); err != nil {
			return nil, err
		}
		if p.Number == "" || p.Status == "" {
			return nil, fmt.Errorf("%w: %s requires NumeroPedido and Status", ErrMalformed, t)
		}

		return p, nil
	case t == CustomerCreated:
		var p CustomerCreatedPayload
		if err := unmarshalPayload(body, &p); err != nil {
			return nil, err
		}
		if p.Name == "" || p.Email == "" {
			return nil, fmt.Errorf("%w: customer.created requires Nome and Email", ErrMalformed)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("%w: no payload for %s", ErrMalformed, t)
	}
}

func unmarshalPayload(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}

	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
