package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/giftsplit/internal/auth"
	"github.com/mmynk/giftsplit/internal/codec"
	"github.com/mmynk/giftsplit/internal/middleware"
	"github.com/mmynk/giftsplit/internal/models"
	"github.com/mmynk/giftsplit/internal/session"
	"github.com/mmynk/giftsplit/internal/storage"
)

// RecipientServiceName is the fully-qualified name of the service.
const RecipientServiceName = "giftsplit.v1.RecipientService"

// Procedure paths, one per RPC.
const (
	OpenSessionProcedure        = "/" + RecipientServiceName + "/OpenSession"
	GetSessionInputProcedure    = "/" + RecipientServiceName + "/GetSessionInput"
	UpdateSessionInputProcedure = "/" + RecipientServiceName + "/UpdateSessionInput"
	GetStateProcedure           = "/" + RecipientServiceName + "/GetState"
	UpdateFieldProcedure        = "/" + RecipientServiceName + "/UpdateField"
	SetQuantityProcedure        = "/" + RecipientServiceName + "/SetQuantity"
	AddRowProcedure             = "/" + RecipientServiceName + "/AddRow"
	RemoveRowProcedure          = "/" + RecipientServiceName + "/RemoveRow"
	BeginEditProcedure          = "/" + RecipientServiceName + "/BeginEdit"
	UpdateDraftProcedure        = "/" + RecipientServiceName + "/UpdateDraft"
	SelectSavedProcedure        = "/" + RecipientServiceName + "/SelectSaved"
	CommitAddressProcedure      = "/" + RecipientServiceName + "/CommitAddress"
	CancelEditProcedure         = "/" + RecipientServiceName + "/CancelEdit"
	SubmitProcedure             = "/" + RecipientServiceName + "/Submit"
	CloseSessionProcedure       = "/" + RecipientServiceName + "/CloseSession"
	GetHandoffProcedure         = "/" + RecipientServiceName + "/GetHandoff"
	ListHandoffsProcedure       = "/" + RecipientServiceName + "/ListHandoffs"
)

// HandoffRecorder is told about every handoff written to the outbox.
type HandoffRecorder interface {
	HandoffSubmitted(h models.Handoff)
}

// RecipientService exposes recipient sessions over Connect.
// The host page opens a session with its host key and then drives it with
// the returned session token.
type RecipientService struct {
	sessions *session.Manager
	tokens   *auth.TokenManager
	outbox   storage.HandoffStore
	recorder HandoffRecorder
}

// NewRecipientService creates a RecipientService. recorder may be nil.
func NewRecipientService(sessions *session.Manager, tokens *auth.TokenManager, outbox storage.HandoffStore, recorder HandoffRecorder) *RecipientService {
	return &RecipientService{
		sessions: sessions,
		tokens:   tokens,
		outbox:   outbox,
		recorder: recorder,
	}
}

// NewHandler returns the service's path prefix and handler.
// Interceptors in opts run outside the auth interceptors.
func NewHandler(svc *RecipientService, hosts auth.HostAuthenticator, opts ...connect.HandlerOption) (string, http.Handler) {
	base := append([]connect.HandlerOption{connect.WithCodec(codec.JSON{})}, opts...)
	hostOpts := append(base[:len(base):len(base)], connect.WithInterceptors(middleware.RequireHost(hosts)))
	sessionOpts := append(base[:len(base):len(base)], connect.WithInterceptors(middleware.RequireSession(svc.tokens)))

	mux := http.NewServeMux()
	mux.Handle(OpenSessionProcedure, connect.NewUnaryHandler(OpenSessionProcedure, svc.OpenSession, hostOpts...))
	mux.Handle(GetHandoffProcedure, connect.NewUnaryHandler(GetHandoffProcedure, svc.GetHandoff, hostOpts...))
	mux.Handle(ListHandoffsProcedure, connect.NewUnaryHandler(ListHandoffsProcedure, svc.ListHandoffs, hostOpts...))

	mux.Handle(GetSessionInputProcedure, connect.NewUnaryHandler(GetSessionInputProcedure, svc.GetSessionInput, sessionOpts...))
	mux.Handle(UpdateSessionInputProcedure, connect.NewUnaryHandler(UpdateSessionInputProcedure, svc.UpdateSessionInput, sessionOpts...))
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, svc.GetState, sessionOpts...))
	mux.Handle(UpdateFieldProcedure, connect.NewUnaryHandler(UpdateFieldProcedure, svc.UpdateField, sessionOpts...))
	mux.Handle(SetQuantityProcedure, connect.NewUnaryHandler(SetQuantityProcedure, svc.SetQuantity, sessionOpts...))
	mux.Handle(AddRowProcedure, connect.NewUnaryHandler(AddRowProcedure, svc.AddRow, sessionOpts...))
	mux.Handle(RemoveRowProcedure, connect.NewUnaryHandler(RemoveRowProcedure, svc.RemoveRow, sessionOpts...))
	mux.Handle(BeginEditProcedure, connect.NewUnaryHandler(BeginEditProcedure, svc.BeginEdit, sessionOpts...))
	mux.Handle(UpdateDraftProcedure, connect.NewUnaryHandler(UpdateDraftProcedure, svc.UpdateDraft, sessionOpts...))
	mux.Handle(SelectSavedProcedure, connect.NewUnaryHandler(SelectSavedProcedure, svc.SelectSaved, sessionOpts...))
	mux.Handle(CommitAddressProcedure, connect.NewUnaryHandler(CommitAddressProcedure, svc.CommitAddress, sessionOpts...))
	mux.Handle(CancelEditProcedure, connect.NewUnaryHandler(CancelEditProcedure, svc.CancelEdit, sessionOpts...))
	mux.Handle(SubmitProcedure, connect.NewUnaryHandler(SubmitProcedure, svc.Submit, sessionOpts...))
	mux.Handle(CloseSessionProcedure, connect.NewUnaryHandler(CloseSessionProcedure, svc.CloseSession, sessionOpts...))

	return "/" + RecipientServiceName + "/", mux
}

// session resolves the session bound to the request by the auth interceptor.
func (s *RecipientService) session(ctx context.Context) (*session.Session, error) {
	sess, err := s.sessions.Get(middleware.GetSessionID(ctx))
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	return sess, nil
}

func stateResponse(sess *session.Session, applied bool) *connect.Response[StateResponse] {
	resp := connect.NewResponse(&StateResponse{Applied: applied, State: sess.State()})
	resp.Header().Set(middleware.SessionHeader, sess.ID())
	return resp
}

// event adapts a session event into a handler returning the new state.
func event[Req any](s *RecipientService, apply func(*session.Session, *Req) bool) func(context.Context, *connect.Request[Req]) (*connect.Response[StateResponse], error) {
	return func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[StateResponse], error) {
		sess, err := s.session(ctx)
		if err != nil {
			return nil, err
		}
		return stateResponse(sess, apply(sess, req.Msg)), nil
	}
}

// OpenSession creates a session from the host's item context and returns
// the token that addresses it.
func (s *RecipientService) OpenSession(ctx context.Context, req *connect.Request[OpenSessionRequest]) (*connect.Response[OpenSessionResponse], error) {
	sess := s.sessions.Open(req.Msg.Input)

	token, err := s.tokens.Generate(sess.ID())
	if err != nil {
		s.sessions.Close(sess.ID())
		slog.Error("OpenSession: failed to issue token", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := connect.NewResponse(&OpenSessionResponse{
		SessionID: sess.ID(),
		Token:     token,
		State:     sess.State(),
	})
	resp.Header().Set(middleware.SessionHeader, sess.ID())
	return resp, nil
}

// GetSessionInput returns the item context the session was last given.
func (s *RecipientService) GetSessionInput(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GetSessionInputResponse], error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	in, ok := sess.Input()
	return connect.NewResponse(&GetSessionInputResponse{Input: in, HasInput: ok}), nil
}

// UpdateSessionInput applies new item context. Applied reports a re-seed.
func (s *RecipientService) UpdateSessionInput(ctx context.Context, req *connect.Request[UpdateSessionInputRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *UpdateSessionInputRequest) bool {
		return sess.UpdateInput(msg.Input)
	})(ctx, req)
}

// GetState returns the rows, totals and editor view.
func (s *RecipientService) GetState(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return event(s, func(*session.Session, *Empty) bool { return true })(ctx, req)
}

// UpdateField sets a row's recipient name or gift message.
func (s *RecipientService) UpdateField(ctx context.Context, req *connect.Request[UpdateFieldRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *UpdateFieldRequest) bool {
		return sess.UpdateField(msg.RowID, msg.Field, msg.Value)
	})(ctx, req)
}

// SetQuantity sets a row's quantity from the raw input value.
func (s *RecipientService) SetQuantity(ctx context.Context, req *connect.Request[SetQuantityRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *SetQuantityRequest) bool {
		return sess.SetQuantity(msg.RowID, string(msg.Value))
	})(ctx, req)
}

// AddRow appends a default row for the session's item.
func (s *RecipientService) AddRow(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, _ *Empty) bool {
		_, ok := sess.AddRow()
		return ok
	})(ctx, req)
}

// RemoveRow deletes a row by id.
func (s *RecipientService) RemoveRow(ctx context.Context, req *connect.Request[RemoveRowRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *RemoveRowRequest) bool {
		return sess.RemoveRow(msg.RowID)
	})(ctx, req)
}

// BeginEdit opens the address editor for a row.
func (s *RecipientService) BeginEdit(ctx context.Context, req *connect.Request[BeginEditRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *BeginEditRequest) bool {
		sess.BeginEdit(msg.RowID)
		return true
	})(ctx, req)
}

// UpdateDraft sets one field of the address draft.
func (s *RecipientService) UpdateDraft(ctx context.Context, req *connect.Request[UpdateDraftRequest]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, msg *UpdateDraftRequest) bool {
		return sess.UpdateDraft(msg.Field, msg.Value)
	})(ctx, req)
}

// SelectSaved copies a saved address into the draft.
func (s *RecipientService) SelectSaved(ctx context.Context, req *connect.Request[SelectSavedRequest]) (*connect.Response[StateResponse], error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.SelectSaved(req.Msg.Index) {
		state := sess.State()
		if state.Editor.Open {
			return nil, connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("no saved address at index %d (have %d)", req.Msg.Index, len(state.Editor.Saved)))
		}
		return stateResponse(sess, false), nil
	}
	return stateResponse(sess, true), nil
}

// CommitAddress writes the draft into its row and closes the editor.
func (s *RecipientService) CommitAddress(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, _ *Empty) bool {
		_, ok := sess.CommitAddress()
		return ok
	})(ctx, req)
}

// CancelEdit closes the editor without changing any row.
func (s *RecipientService) CancelEdit(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return event(s, func(sess *session.Session, _ *Empty) bool {
		sess.CancelEdit()
		return true
	})(ctx, req)
}

// Submit writes the session's rows to the handoff outbox.
func (s *RecipientService) Submit(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SubmitResponse], error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	h, err := sess.Submit(ctx, s.outbox)
	if errors.Is(err, session.ErrNoItem) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	if err != nil {
		slog.Error("Submit failed", "session_id", sess.ID(), "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if s.recorder != nil {
		s.recorder.HandoffSubmitted(h)
	}

	resp := connect.NewResponse(&SubmitResponse{Handoff: h})
	resp.Header().Set(middleware.SessionHeader, sess.ID())
	return resp, nil
}

// CloseSession drops the session. Its token stops working.
func (s *RecipientService) CloseSession(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CloseSessionResponse], error) {
	id := middleware.GetSessionID(ctx)
	closed := s.sessions.Close(id)
	if !closed {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", session.ErrSessionNotFound, id))
	}
	resp := connect.NewResponse(&CloseSessionResponse{Closed: true})
	resp.Header().Set(middleware.SessionHeader, id)
	return resp, nil
}

// GetHandoff lets the checkout consumer read a submitted handoff.
func (s *RecipientService) GetHandoff(ctx context.Context, req *connect.Request[GetHandoffRequest]) (*connect.Response[GetHandoffResponse], error) {
	h, err := s.outbox.GetHandoff(ctx, req.Msg.HandoffID)
	if errors.Is(err, storage.ErrHandoffNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		slog.Error("GetHandoff failed", "handoff_id", req.Msg.HandoffID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&GetHandoffResponse{Handoff: h}), nil
}

// ListHandoffs lists the handoffs a session submitted, oldest first.
func (s *RecipientService) ListHandoffs(ctx context.Context, req *connect.Request[ListHandoffsRequest]) (*connect.Response[ListHandoffsResponse], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("session_id is required"))
	}
	list, err := s.outbox.ListHandoffs(ctx, req.Msg.SessionID)
	if err != nil {
		slog.Error("ListHandoffs failed", "session_id", req.Msg.SessionID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListHandoffsResponse{Handoffs: list}), nil
}
