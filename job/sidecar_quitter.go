package job

import "docshelf/event-pipeline/log"

type SidecarQuitter struct {
	QuitSidecar     bool
	Client          httpPoster
	sidecarProxyUrl string
}

func (s *SidecarQuitter) EnableSideCarProxyQuit(proxyUrl string) {
	s.QuitSidecar = true
	s.sidecarProxyUrl = proxyUrl
}

// Quit asks the sidecar proxy to shut down so a one-shot cleanup or optimize
// pod can terminate instead of being held alive by its sidecar.
func (s *SidecarQuitter) Quit() error {
	_, err := s.Client.Post(s.sidecarProxyUrl+"/quitquitquit", "text/plain", nil)
	if err != nil {
		log.Logger.WithError(err).WithField("sidecar_proxy_url", s.sidecarProxyUrl).Error("unexpected error received from sidecar proxy /quitquitquit")
		return err
	}

	return nil
}
