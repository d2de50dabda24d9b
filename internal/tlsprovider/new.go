package tlsprovider

import (
	"fmt"

	"github.com/jinshuio/jinshu/internal/config"
	"k8s.io/client-go/kubernetes"
)

// New selects a Provider per cfg.Provider. clientset may be nil unless
// cfg.Provider is "kubernetes".
func New(cfg config.TLSConfig, clientset *kubernetes.Clientset) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "filesystem":
		if cfg.CertFile == "" || cfg.KeyFile == "" {
			return nil, fmt.Errorf("tlsprovider: filesystem provider requires cert_file and key_file")
		}
		return NewFileProvider(cfg.CertFile, cfg.KeyFile), nil
	case "kubernetes":
		if clientset == nil {
			return nil, fmt.Errorf("tlsprovider: kubernetes provider requires an in-cluster client")
		}
		namespace := cfg.Namespace
		if namespace == "" {
			namespace = "default"
		}
		if cfg.SecretName == "" {
			return nil, fmt.Errorf("tlsprovider: kubernetes provider requires secret_name")
		}
		return NewKubernetesProvider(clientset, namespace, cfg.SecretName), nil
	case "self_signed":
		return NewSelfSignedProvider("jinshu.comet")
	default:
		return nil, fmt.Errorf("tlsprovider: unknown provider %q", cfg.Provider)
	}
}
