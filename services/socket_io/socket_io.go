package socket_io

import (
	"Arcadia/services/notifications"
	"Arcadia/services/portals"
	"Arcadia/services/redis"
	"Arcadia/services/sessions"
	"Arcadia/services/socket_io/handlers"
	syncmanager "Arcadia/sync"

	socketio_types "Arcadia/services/socket_io/types"
	socketio_utils "Arcadia/services/socket_io/utils"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Services groups the long-lived singletons every handler closes over.
type Services struct {
	Store    *sessions.Store
	Registry *portals.Registry
	Feed     *notifications.Feed
	SyncMgr  *syncmanager.SyncManager
}

func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB, redisClient *redis.RedisClient, svc *Services) {
	log.DEBUG = true
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: initialize the map, otherwise it panics on first use
	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		success, username, email := socketio_utils.VerifyUserConnection(client, db)
		if !success {
			return
		}

		// Add connection to map
		(*socketio_types.SocketServer)(sio).AddConnection(username, client)
		handlers.HandleConnected(redisClient, client, username)

		fmt.Println("An individual just connected!: ", username, email)

		server := (*socketio_types.SocketServer)(sio)

		// Session lifecycle
		client.On("create_session", handlers.HandleCreateSession(redisClient, client, db, username, server, svc.Store))
		client.On("join_session", handlers.HandleJoinSession(redisClient, client, db, username, server, svc.Store))
		client.On("exit_session", handlers.HandleExitSession(redisClient, client, db, username, server, svc.Store))
		client.On("toggle_ready", handlers.HandleToggleReady(redisClient, client, db, username, server, svc.Store))
		client.On("start_session", handlers.HandleStartSession(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.Registry))
		client.On("pause_session", handlers.HandlePauseSession(redisClient, client, db, username, server, svc.Store))
		client.On("resume_session", handlers.HandleResumeSession(redisClient, client, db, username, server, svc.Store))
		client.On("update_score", handlers.HandleUpdateScore(redisClient, client, db, username, server, svc.Store))
		client.On("end_session", handlers.HandleEndSession(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.SyncMgr, svc.Registry))
		client.On("get_session_info", handlers.HandleGetSessionInfo(redisClient, client, db, username, server, svc.Store))

		// Invitations
		client.On("send_invitation", handlers.HandleSendInvitation(redisClient, client, db, username, server, svc.Feed))
		client.On("respond_invitation", handlers.HandleRespondInvitation(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.SyncMgr))
		client.On("cancel_invitation", handlers.HandleCancelInvitation(redisClient, client, db, username, server))

		// Chess matches
		client.On("make_move", handlers.HandleMakeMove(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.SyncMgr))
		client.On("resign", handlers.HandleResign(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.SyncMgr))
		client.On("flag_fall", handlers.HandleFlagFall(redisClient, client, db, username, server, svc.Store, svc.Feed, svc.SyncMgr))
		client.On("request_match_state", handlers.HandleRequestMatchState(redisClient, client, db, username))

		// Portals
		client.On("join_queue", handlers.HandleJoinQueue(redisClient, client, username, server, svc.Registry))
		client.On("leave_queue", handlers.HandleLeaveQueue(redisClient, client, username, server, svc.Registry))
		client.On("list_portals", handlers.HandleListPortals(client, svc.Registry))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(username, server, db, redisClient, svc.Registry))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}
