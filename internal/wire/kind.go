package wire

import "fmt"

// Kind discriminates protocol messages. The set is closed: decoding a kind
// outside it fails.
type Kind uint8

const (
	KindInvalid Kind = iota

	// session
	KindPrompt
	KindText
	KindLoginOK
	KindLoginFailed
	KindMenu
	KindSelect
	KindInfo
	KindError
	KindList

	// upload
	KindUploadPlain
	KindUploadForRequest
	KindUploadInfo
	KindFileExists
	KindFileNew
	KindReplace
	KindRename
	KindCancel
	KindUploadApproved
	KindUploadRejected
	KindChunk
	KindAck
	KindComplete
	KindSuccess

	// download
	KindDownloadTarget
	KindDownloadApproved
	KindDownloadComplete

	// notification side-channel
	KindRegister
	KindNotification
	KindDisconnect

	kindCount
)

var kindNames = [...]string{
	KindInvalid:          "INVALID",
	KindPrompt:           "PROMPT",
	KindText:             "TEXT",
	KindLoginOK:          "LOGIN_SUCCESS",
	KindLoginFailed:      "LOGIN_FAILED",
	KindMenu:             "MENU",
	KindSelect:           "SELECT",
	KindInfo:             "INFO",
	KindError:            "ERROR",
	KindList:             "LIST",
	KindUploadPlain:      "UPLOAD",
	KindUploadForRequest: "REQUEST_UPLOAD",
	KindUploadInfo:       "UPLOAD_INFO",
	KindFileExists:       "FILE_EXISTS",
	KindFileNew:          "FILE_NEW",
	KindReplace:          "REPLACE",
	KindRename:           "RENAME",
	KindCancel:           "CANCEL",
	KindUploadApproved:   "UPLOAD_APPROVED",
	KindUploadRejected:   "UPLOAD_REJECTED",
	KindChunk:            "CHUNK",
	KindAck:              "ACK",
	KindComplete:         "COMPLETE",
	KindSuccess:          "SUCCESS",
	KindDownloadTarget:   "DOWNLOAD_TARGET",
	KindDownloadApproved: "DOWNLOAD_APPROVED",
	KindDownloadComplete: "DOWNLOAD_COMPLETE",
	KindRegister:         "REGISTER",
	KindNotification:     "NOTIFICATION",
	KindDisconnect:       "DISCONNECT",
}

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is a known, non-zero kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}
