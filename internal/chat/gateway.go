package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
)

// MatchFinder resolves the match between two users, nil if there is none.
type MatchFinder interface {
	Lookup(ctx context.Context, a, b string) (*db.Match, error)
}

var statusRank = map[string]int{
	db.StatusSent:      0,
	db.StatusDelivered: 1,
	db.StatusRead:      2,
}

// Gateway applies chat frames to the message store. Only matched users may
// exchange messages.
type Gateway struct {
	log      *slog.Logger
	matches  MatchFinder
	store    repository.MessageStore
	registry *Registry
	validate *validator.Validate
	now      func() time.Time
}

func NewGateway(log *slog.Logger, matches MatchFinder, store repository.MessageStore, registry *Registry) *Gateway {
	return &Gateway{
		log:      log,
		matches:  matches,
		store:    store,
		registry: registry,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Registry returns the connection registry pushes go through.
func (g *Gateway) Registry() *Registry { return g.registry }

// Handle processes one raw frame from userID and returns the reply for the
// sender. On success the resulting message is also pushed to the other party
// when they are connected.
//
// Every failure becomes an ERROR frame. Nothing is persisted for frames that
// fail validation or come from unmatched users.
func (g *Gateway) Handle(ctx context.Context, userID string, raw []byte) Outbound {
	in, err := g.decode(raw)
	if err != nil {
		g.log.Debug("bad chat frame", "user", userID, "err", err)
		return failure(detailBadFormat)
	}

	match, err := g.matches.Lookup(ctx, userID, in.Message.ToID)
	if err != nil {
		return g.fail(userID, in.Action, err)
	}
	if match == nil || userID == in.Message.ToID ||
		(in.Message.MatchID != "" && in.Message.MatchID != match.ID) {
		return failure((&svcErr.NoMatchError{UserA: userID, UserB: in.Message.ToID}).Error())
	}

	var msg *db.Message
	switch in.Action {
	case ActionCreate:
		msg, err = g.create(ctx, userID, match, in.Message)
	case ActionUpdate:
		msg, err = g.update(ctx, userID, match, in.Message)
	case ActionDelete:
		msg, err = g.remove(ctx, match, in.Message)
	}
	if err != nil {
		return g.fail(userID, in.Action, err)
	}

	reply := ok(in.Action, msg)
	if frame, err := json.Marshal(reply); err == nil {
		if !g.registry.Push(in.Message.ToID, frame) {
			g.log.Debug("chat push skipped", "to", in.Message.ToID, "message", msg.ID)
		}
	}
	return reply
}

func (g *Gateway) decode(raw []byte) (*Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	if err := g.validate.Struct(&in); err != nil {
		return nil, err
	}

	m := in.Message
	switch in.Action {
	case ActionCreate:
		if blank(m.Text) && blank(m.Media) {
			return nil, errors.New("create needs text or media")
		}
	case ActionUpdate:
		if m.ID == "" {
			return nil, errors.New("update needs an id")
		}
		if m.Text == nil && m.Media == nil && m.ReplyTo == nil && m.Status == "" {
			return nil, errors.New("update changes nothing")
		}
	case ActionDelete:
		if m.ID == "" {
			return nil, errors.New("delete needs an id")
		}
	}
	return &in, nil
}

func (g *Gateway) create(ctx context.Context, userID string, match *db.Match, in *InboundMessage) (*db.Message, error) {
	now := g.now()
	msg := &db.Message{
		ID:        db.NewID(),
		MatchID:   match.ID,
		FromID:    userID,
		ToID:      in.ToID,
		Status:    db.StatusSent,
		ReplyTo:   in.ReplyTo,
		GroupID:   in.GroupID,
		Media:     in.Media,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Text != nil {
		msg.Text = *in.Text
	}
	if err := g.store.Create(ctx, msg); err != nil {
		return nil, err
	}
	g.log.Debug("chat message created", "message", msg.ID, "match", match.ID)
	return msg, nil
}

// update lets the sender edit content and the recipient advance the status.
func (g *Gateway) update(ctx context.Context, userID string, match *db.Match, in *InboundMessage) (*db.Message, error) {
	msg, err := g.load(ctx, match, in.ID)
	if err != nil {
		return nil, err
	}

	contentChange := in.Text != nil || in.Media != nil || in.ReplyTo != nil
	switch userID {
	case msg.FromID:
		if in.Status != "" {
			return nil, svcErr.PermissionDenied("only the recipient may change message status")
		}
		if in.Text != nil {
			msg.Text = *in.Text
		}
		if in.Media != nil {
			msg.Media = in.Media
		}
		if in.ReplyTo != nil {
			msg.ReplyTo = in.ReplyTo
		}
	case msg.ToID:
		if contentChange {
			return nil, svcErr.PermissionDenied("only the sender may edit message %s", msg.ID)
		}
		if statusRank[in.Status] > statusRank[msg.Status] {
			msg.Status = in.Status
		}
	default:
		return nil, unknownMessage(in.ID)
	}

	msg.UpdatedAt = g.now()
	if err := g.store.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (g *Gateway) remove(ctx context.Context, match *db.Match, in *InboundMessage) (*db.Message, error) {
	msg, err := g.load(ctx, match, in.ID)
	if err != nil {
		return nil, err
	}
	if err := g.store.Delete(ctx, msg.ID); err != nil {
		return nil, err
	}
	msg.Status = db.StatusDeleted
	msg.UpdatedAt = g.now()
	return msg, nil
}

// load fetches a message and hides it unless it belongs to match.
func (g *Gateway) load(ctx context.Context, match *db.Match, id string) (*db.Message, error) {
	msg, err := g.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.MatchID != match.ID {
		return nil, unknownMessage(id)
	}
	return msg, nil
}

func (g *Gateway) fail(userID, action string, err error) Outbound {
	status, detail := svcErr.Map(err)
	if status >= 500 {
		g.log.Error("chat action failed", "user", userID, "action", action, "err", err)
	}
	return failure(detail)
}

func unknownMessage(id string) error {
	return svcErr.NotFound("unknown message id %s", id)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
