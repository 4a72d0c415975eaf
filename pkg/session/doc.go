// Package session ties a usage tracker to its ledger sinks for one batch run.
//
// A Session is Open on construction and forwards every record to its sinks.
// Close moves it to Closed, computes the tracker summary, finalizes each sink
// once and prints the summary line. Records after Close fail with
// *SessionClosedError.
//
// Use Run (or defer Close) so the summary is written however the batch ends:
//
//	sess := session.New(tracker, csvLogger)
//	err := session.Run(sess, func(s *session.Session) error {
//	    for _, job := range jobs {
//	        ...
//	        if err := s.Record(rec); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
package session
