// Package realtime pushes saved documents to socket.io clients.
//
// Every client joins RoomAll on connect. Clients send "subscribe" or
// "unsubscribe" with a room name to follow one author (see AuthorRoom).
package realtime

import (
	"net/http"

	"document-search/core"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const (
	RoomAll        = socketio.Room("documents")
	EventSaved     = "document-saved"
	maxBufferBytes = 5000000
)

func AuthorRoom(authorID string) socketio.Room {
	return socketio.Room("author:" + authorID)
}

type Server struct {
	io *socketio.Server
}

func NewServer() *Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(maxBufferBytes)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	ioo := socketio.NewServer(nil, opts)

	ioo.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		log := logrus.WithField("socket_id", socket.Id())
		socket.Join(RoomAll)
		log.Debug("Realtime client connected")

		socket.On("subscribe", func(datas ...any) {
			if room, ok := roomName(datas); ok {
				log.WithField("room", room).Debug("Realtime client subscribed")
				socket.Join(room)
			}
		})
		socket.On("unsubscribe", func(datas ...any) {
			if room, ok := roomName(datas); ok {
				socket.Leave(room)
			}
		})
		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			log.Debug("Realtime client disconnected")
		})
	})

	return &Server{io: ioo}
}

func roomName(datas []any) (socketio.Room, bool) {
	if len(datas) == 0 {
		return "", false
	}
	name, ok := datas[0].(string)
	if !ok || name == "" {
		return "", false
	}
	return socketio.Room(name), true
}

// Rooms returns the rooms a save of document is announced to.
func Rooms(document core.Document) []socketio.Room {
	rooms := []socketio.Room{RoomAll}
	if document.Author != nil && document.Author.ID != "" {
		rooms = append(rooms, AuthorRoom(document.Author.ID))
	}
	return rooms
}

// Publish emits EventSaved once to every client in any of the document's rooms.
func (s *Server) Publish(document core.Document) {
	rooms := Rooms(document)
	op := s.io.To(rooms[0])
	for _, room := range rooms[1:] {
		op = op.To(room)
	}
	op.Emit(EventSaved, document)
}

func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

func (s *Server) Close() {
	s.io.Close(nil)
}
