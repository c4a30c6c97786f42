package medhub

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// AssetObjectKey builds the storage object key for an asset:
// {kind}/{contentID}/{assetID}{ext}. The extension comes from the
// original file name so downloads keep a sensible suffix; everything
// else is opaque to avoid collisions and leaking titles into keys.
func AssetObjectKey(kind ContentKind, contentID, assetID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%s/%s%s", kind, contentID, assetID, ext)
}
