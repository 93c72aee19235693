package archive

import "context"

// resolveRevision fetches the current revision token for a document. Store
// errors pass through untouched so callers can decide the retry policy;
// this read has no side effects.
func (a *archive) resolveRevision(
	ctx context.Context, collection, id string,
) (string, error) {
	doc, err := a.client.Get(ctx, collection, id)
	if err != nil {
		return "", err
	}

	return doc.Revision, nil
}
