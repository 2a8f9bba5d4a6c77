// Package kvstore is a small key/value service speaking striptease messages
// inside frames. Clients store and fetch named blobs; every request carries a
// transaction id that the response echoes.
package kvstore

import (
	"errors"
	"fmt"

	"github.com/Prakti/striptease"
	"github.com/Prakti/striptease/message"
)

// Message type tags.
const (
	MsgStoreRequest  uint8 = 0x01
	MsgStoreResponse uint8 = 0x02
	MsgFetchRequest  uint8 = 0x03
	MsgFetchResponse uint8 = 0x04
)

// Status codes carried by responses.
const (
	StatusOK       uint8 = 0x00
	StatusIO       uint8 = 0x01
	StatusNotFound uint8 = 0x02
	StatusFailed   uint8 = 0xFF
)

// Errors
var (
	ErrNotFound            = errors.New("kvstore: no such key")
	ErrTransactionMismatch = errors.New("kvstore: response for another transaction")
	ErrUnexpectedMessage   = errors.New("kvstore: unexpected message type")
	ErrClientBroken        = errors.New("kvstore: connection abandoned after an interrupted request")
)

// StatusError is a non-OK status returned by the server.
type StatusError struct {
	Op     string
	Name   string
	Status uint8
}

func (e StatusError) Error() string {
	return fmt.Sprintf("kvstore: %s %q: status 0x%02X", e.Op, e.Name, e.Status)
}

func (e StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == StatusNotFound
}

var (
	storeRequest = striptease.MustStruct("store_request",
		striptease.Uint8("trans"),
		striptease.Uint8("nlen"),
		striptease.String("name", striptease.Dynamic("nlen")),
		striptease.Uint16("dlen"),
		striptease.String("data", striptease.Dynamic("dlen")),
	)

	storeResponse = striptease.MustStruct("store_response",
		striptease.Uint8("trans"),
		striptease.Uint8("nlen"),
		striptease.String("name", striptease.Dynamic("nlen")),
		striptease.Uint8("status"),
	)

	fetchRequest = striptease.MustStruct("fetch_request",
		striptease.Uint8("trans"),
		striptease.Uint8("nlen"),
		striptease.String("name", striptease.Dynamic("nlen")),
	)

	fetchResponse = striptease.MustStruct("fetch_response",
		striptease.Uint8("trans"),
		striptease.Uint8("status"),
		striptease.Uint8("nlen"),
		striptease.String("name", striptease.Dynamic("nlen")),
		striptease.Uint16("dlen"),
		striptease.String("data", striptease.Dynamic("dlen")),
	)
)

// Messages returns a registry holding the four kvstore message types.
func Messages() *message.Registry {
	r := message.NewRegistry()
	r.MustRegister(MsgStoreRequest, "store_request", storeRequest)
	r.MustRegister(MsgStoreResponse, "store_response", storeResponse)
	r.MustRegister(MsgFetchRequest, "fetch_request", fetchRequest)
	r.MustRegister(MsgFetchResponse, "fetch_response", fetchResponse)
	return r
}
