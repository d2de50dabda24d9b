// Package kubernetes implements internal/registry.Registry over
// Kubernetes Endpoints objects, adapted from the teacher's
// discovery/kubernetes TLS-provider package (same clientset
// construction idiom) — Kubernetes itself owns Service membership, so
// this backend discovers and watches rather than writes.
package kubernetes

import (
	"context"
	"fmt"

	"github.com/jinshuio/jinshu/internal/keeper"
	"github.com/jinshuio/jinshu/internal/registry"
	"github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
)

// Config names the namespace every watched Service lives in.
type Config struct {
	Namespace string `mapstructure:"namespace"`
}

// Registry discovers and watches Kubernetes Endpoints objects, one per
// service name, to learn that service's current instance addresses.
type Registry struct {
	clientset *kubernetes.Clientset
	namespace string
}

func New(clientset *kubernetes.Clientset, cfg Config) *Registry {
	return &Registry{clientset: clientset, namespace: cfg.Namespace}
}

func endpointURIs(ep *corev1.Endpoints) map[string]string {
	out := map[string]string{}
	for _, subset := range ep.Subsets {
		for _, port := range subset.Ports {
			for _, addr := range subset.Addresses {
				key := addr.IP
				if addr.TargetRef != nil {
					key = string(addr.TargetRef.UID)
				}
				out[key] = fmt.Sprintf("http://%s:%d/", addr.IP, port.Port)
			}
		}
	}
	return out
}

// Register is a no-op Keeper: Kubernetes Endpoints objects are
// maintained by the platform as Pods come and go behind a Service, not
// by the registering process itself, so there is nothing for Register
// to write. The Keeper exists purely so callers can use the same
// Registry interface across backends.
func (r *Registry) Register(ctx context.Context, name, uri string) (*keeper.Keeper[error], error) {
	k := keeper.Make(func(done context.Context) error {
		<-done.Done()
		return nil
	})
	return k, nil
}

// Discover lists the Endpoints object for the Kubernetes Service named
// name and returns its current member addresses.
func (r *Registry) Discover(ctx context.Context, name string) (map[string]string, error) {
	ep, err := r.clientset.CoreV1().Endpoints(r.namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("kubernetes registry: get endpoints %s/%s: %w", r.namespace, name, err)
	}
	return endpointURIs(ep), nil
}

// Watch streams changes to the named Service's Endpoints object.
func (r *Registry) Watch(ctx context.Context, name string) (registry.Watcher, error) {
	watcher, err := r.clientset.CoreV1().Endpoints(r.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fmt.Sprintf("metadata.name=%s", name),
	})
	if err != nil {
		return nil, fmt.Errorf("kubernetes registry: watch endpoints %s/%s: %w", r.namespace, name, err)
	}

	w := &epWatcher{watcher: watcher, changes: make(chan registry.Change, 16), seen: map[string]string{}}
	go w.run()
	return w, nil
}

type epWatcher struct {
	watcher watch.Interface
	changes chan registry.Change
	seen    map[string]string
}

func (w *epWatcher) run() {
	defer close(w.changes)
	for event := range w.watcher.ResultChan() {
		ep, ok := event.Object.(*corev1.Endpoints)
		if !ok {
			continue
		}

		current := endpointURIs(ep)

		for key := range w.seen {
			if _, stillPresent := current[key]; !stillPresent {
				change := registry.Change{Kind: registry.ChangeDelete, Key: key}
				logrus.WithField("change", change).Info("service set is changed")
				w.changes <- change
				delete(w.seen, key)
			}
		}

		for key, uri := range current {
			if existing, ok := w.seen[key]; !ok || existing != uri {
				change := registry.Change{Kind: registry.ChangeCreate, Key: key, URI: uri}
				logrus.WithField("change", change).Info("service set is changed")
				w.changes <- change
				w.seen[key] = uri
			}
		}
	}
}

func (w *epWatcher) Changes() <-chan registry.Change {
	return w.changes
}

func (w *epWatcher) Cancel(ctx context.Context) error {
	w.watcher.Stop()
	return nil
}
