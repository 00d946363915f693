package controller

import (
	"context"
	"encoding/json"

	"ai-ghostwriter-be/internal/dto"
	"ai-ghostwriter-be/internal/editor"
	"ai-ghostwriter-be/internal/pkg/logger"
	"ai-ghostwriter-be/internal/pkg/serverutils"
	"ai-ghostwriter-be/internal/service"
	internalWS "ai-ghostwriter-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventSession is the first frame of every editor connection.
const EventSession editor.EventType = "session"

type IEditorController interface {
	RegisterRoutes(r fiber.Router)
	Connect(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Close(ctx *fiber.Ctx) error
}

type editorController struct {
	editorService service.IEditorService
	hub           *internalWS.Hub
	dispatcher    *internalWS.Dispatcher
	auth          fiber.Handler
	logger        logger.ILogger
}

func NewEditorController(
	editorService service.IEditorService,
	hub *internalWS.Hub,
	dispatcher *internalWS.Dispatcher,
	auth fiber.Handler,
	log logger.ILogger,
) IEditorController {
	return &editorController{
		editorService: editorService,
		hub:           hub,
		dispatcher:    dispatcher,
		auth:          auth,
		logger:        log,
	}
}

func (c *editorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/editor/v1")
	h.Use(c.auth)
	h.Get("ws", c.Connect)
	h.Get("sessions/:id", c.Show)
	h.Delete("sessions/:id", c.Close)
}

// Connect upgrades to a websocket bound to an editor session. Passing
// ?session_id= resumes an existing session after a reconnect.
func (c *editorController) Connect(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	session, err := c.editorService.Open(ownerId, ctx.Query("session_id"))
	if err != nil {
		return err
	}

	greeting, err := json.Marshal(struct {
		Type    editor.EventType          `json:"type"`
		Session dto.EditorSessionResponse `json:"session"`
	}{Type: EventSession, Session: toEditorSessionResponse(session.Snapshot())})
	if err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("EditorController", "Starting editor connection", map[string]interface{}{
			"owner_id":   ownerId,
			"session_id": session.ID(),
		})
		internalWS.ServeWs(c.hub, conn, internalWS.Attachment{
			OwnerID:   ownerId,
			SessionID: session.ID(),
			Greeting:  greeting,
			OnMessage: func(data []byte) { c.handleFrame(session, data) },
		})
		c.logger.Info("EditorController", "Editor connection ended", map[string]interface{}{"session_id": session.ID()})
	})(ctx)
}

func (c *editorController) handleFrame(session *editor.Session, data []byte) {
	err := c.dispatcher.Dispatch(context.Background(), session, data)
	if err == nil {
		return
	}

	level := c.logger.Error
	if internalWS.IsClientError(err) {
		level = c.logger.Debug
	}
	level("EditorController", "Frame rejected", map[string]interface{}{
		"session_id": session.ID(),
		"error":      err.Error(),
	})

	reply, _ := json.Marshal(editor.Event{
		Type:      editor.EventError,
		SessionID: session.ID(),
		Error:     err.Error(),
	})
	c.hub.SendToSession(session.ID(), reply)
}

func (c *editorController) Show(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	session, err := c.editorService.Get(ownerId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show editor session", toEditorSessionResponse(session.Snapshot())))
}

func (c *editorController) Close(ctx *fiber.Ctx) error {
	ownerId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	if err := c.editorService.Close(ownerId, ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success close editor session", nil))
}

func toEditorSessionResponse(snap editor.Snapshot) dto.EditorSessionResponse {
	res := dto.EditorSessionResponse{
		Id:        snap.ID,
		Text:      snap.Text,
		Cursor:    snap.Cursor,
		State:     snap.State,
		SourceIds: snap.Sources,
		Model:     snap.Model,
	}
	if res.SourceIds == nil {
		res.SourceIds = []string{}
	}
	if snap.Suggestion != nil {
		text := snap.Suggestion.Text
		res.Suggestion = &text
	}
	return res
}
