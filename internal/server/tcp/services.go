package tcp

import (
	"github.com/dmitrijs2005/gophshare/internal/server/activity"
	"github.com/dmitrijs2005/gophshare/internal/server/blobstore"
	"github.com/dmitrijs2005/gophshare/internal/server/catalog"
	"github.com/dmitrijs2005/gophshare/internal/server/inbox"
	"github.com/dmitrijs2005/gophshare/internal/server/metrics"
	"github.com/dmitrijs2005/gophshare/internal/server/notify"
	"github.com/dmitrijs2005/gophshare/internal/server/requests"
	"github.com/dmitrijs2005/gophshare/internal/server/sessions"
	"github.com/dmitrijs2005/gophshare/internal/server/uploads"
)

// Services is the process-scoped state every connection task works on.
type Services struct {
	Sessions *sessions.Registry
	Catalog  *catalog.Catalog
	Uploads  *uploads.Manager
	Requests *requests.Workflow
	Hub      *notify.Hub
	Inbox    inbox.Store
	Activity activity.Log
	Store    blobstore.Store
	// Metrics may be nil.
	Metrics *metrics.Metrics

	DownloadChunkSize int
	NotifyQueueSize   int
	MaxFrame          int
}
