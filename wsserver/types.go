// File: wsserver/types.go
// Package wsserver composes the protocol codec (C5), connection state
// machine (C6), I/O reactor (C7), and worker pool (C8) into the base
// TCP server, WebSocket server, and (via adapter) messaging server
// (C9). The request/response work-item types live in package workitem
// to avoid an import cycle (reactor and worker must not import
// wsserver, since wsserver composes both); this file re-exports them
// under their familiar wsserver.* names for callers of this package.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wsserver

import "github.com/momentics/wscore/workitem"

type Message = workitem.Message
type RequestItem = workitem.RequestItem
type ResponseFlags = workitem.ResponseFlags
type ResponseItem = workitem.ResponseItem
type Processor = workitem.Processor
type ProcessorFunc = workitem.ProcessorFunc
type ConnectHook = workitem.ConnectHook
type DisconnectHook = workitem.DisconnectHook
type CloseError = workitem.CloseError

const FlagClose = workitem.FlagClose

var NewCloseError = workitem.NewCloseError
