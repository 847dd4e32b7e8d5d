package controller

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// projectFeed fans project messages and events out to connected websocket
// clients. Delivery is best effort; a slow or broken connection is dropped.
type projectFeed struct {
	mu    sync.RWMutex
	conns map[uint]map[*websocket.Conn]struct{}
}

var feed = &projectFeed{conns: make(map[uint]map[*websocket.Conn]struct{})}

func (f *projectFeed) add(projectID uint, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conns[projectID] == nil {
		f.conns[projectID] = make(map[*websocket.Conn]struct{})
	}
	f.conns[projectID][conn] = struct{}{}
}

func (f *projectFeed) remove(projectID uint, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns[projectID], conn)
	if len(f.conns[projectID]) == 0 {
		delete(f.conns, projectID)
	}
}

func (f *projectFeed) broadcast(projectID uint, payload interface{}) {
	f.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(f.conns[projectID]))
	for conn := range f.conns[projectID] {
		conns = append(conns, conn)
	}
	f.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			f.remove(projectID, conn)
			conn.Close()
		}
	}
}

func broadcastProjectUpdate(projectID uint, kind string, data interface{}) {
	feed.broadcast(projectID, fiber.Map{"kind": kind, "data": data})
}

// WSUpgrade gates the feed route to websocket handshakes and checks project
// membership while the fiber context is still available.
func WSUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	user := c.Locals("user").(*models.User)
	var project models.Project
	if err := config.DB.First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !project.IsParticipant(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a participant of this project",
		})
	}

	c.Locals("projectID", project.ID)
	return c.Next()
}

// ProjectFeedWS holds the connection open and relays broadcasts until the
// client disconnects. Inbound frames are ignored except as liveness.
var ProjectFeedWS = websocket.New(func(conn *websocket.Conn) {
	projectID, ok := conn.Locals("projectID").(uint)
	if !ok {
		conn.Close()
		return
	}

	feed.add(projectID, conn)
	defer func() {
		feed.remove(projectID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
})
