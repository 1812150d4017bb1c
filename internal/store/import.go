package store

import (
	"blitztest/internal/importer"
	"blitztest/internal/model"
)

// ImportFromCurl parses a curl command and appends the resulting request.
// Nothing is appended when parsing fails.
func (s *Store) ImportFromCurl(command string) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := importer.ParseCurl(command, s.stamp())
	if err != nil {
		return model.Request{}, err
	}

	s.requests = append(s.requests, req)
	s.logger.Debug("Imported curl command", "id", req.ID, "method", req.Method, "url", req.URL)
	return req.Clone(), nil
}

// ImportFromPostman converts a Postman collection and appends its requests
// together with the collection that owns them. A decode failure leaves the
// store untouched.
func (s *Store) ImportFromPostman(data []byte) error {
	col, err := importer.DecodePostman(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergePostman(col)
	return nil
}

// ImportFromJSON appends the requests and collections of a native bundle
// verbatim.
func (s *Store) ImportFromJSON(data []byte) error {
	bundle, err := importer.DecodeNative(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeBundle(bundle)
	return nil
}

// ImportFromText classifies text and imports it through the matching path.
// Text in no known format becomes a single plain request. It returns the kind
// the text was classified as.
func (s *Store) ImportFromText(text string) (importer.Kind, error) {
	sniffed, err := importer.Sniff(text)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Sniffed import text", "kind", sniffed.Kind)

	switch sniffed.Kind {
	case importer.KindCurl:
		_, err := s.ImportFromCurl(sniffed.Text)
		return sniffed.Kind, err
	case importer.KindPostman:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mergePostman(sniffed.Postman)
	case importer.KindNative:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mergeBundle(sniffed.Native)
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		req := importer.PlainRequest(sniffed.Text, s.stamp())
		s.requests = append(s.requests, req)
	}
	return sniffed.Kind, nil
}

func (s *Store) mergePostman(col importer.PostmanCollection) {
	requests, collection := importer.ConvertPostman(col, s.newID(), s.stamp())
	s.requests = append(s.requests, requests...)
	s.collections = append(s.collections, collection)
	s.logger.Debug("Imported Postman collection", "name", collection.Name, "requests", len(requests))
}

func (s *Store) mergeBundle(bundle model.Bundle) {
	for _, req := range bundle.Requests {
		s.requests = append(s.requests, req.Clone())
	}
	for _, col := range bundle.Collections {
		s.collections = append(s.collections, col.Clone())
	}
	s.logger.Debug("Imported native bundle", "requests", len(bundle.Requests), "collections", len(bundle.Collections))
}
