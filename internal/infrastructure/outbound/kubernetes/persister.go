// Package kubernetes implements control-plane persistence: the expectation
// list is mirrored into a single ConfigMap key so it survives pod restarts
// and can be edited by other cluster tooling.
package kubernetes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
)

// DataKey is the ConfigMap key the expectation list is stored under.
const DataKey = "mocks.json"

// InCluster reports whether the process is running inside a Kubernetes
// pod, per the standard in-cluster service account environment marker.
func InCluster() bool {
	return os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}

// ConfigMapPersister implements store.Persister by patching a single
// ConfigMap's data key on every mutation.
type ConfigMapPersister struct {
	client    kubernetes.Interface
	namespace string
	name      string
}

// NewConfigMapPersister builds a Clientset from the in-cluster service
// account config.
func NewConfigMapPersister(namespace, name string) (*ConfigMapPersister, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("load in-cluster config: %w", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build kubernetes client: %w", err)
	}
	return &ConfigMapPersister{client: client, namespace: namespace, name: name}, nil
}

// Load reads the ConfigMap and parses the expectation list under DataKey.
// Any failure (object missing, key missing, parse error) is returned as an
// error so the caller can fall through to the local file, per the
// documented startup precedence.
func (p *ConfigMapPersister) Load(ctx context.Context) ([]expectation.Expectation, error) {
	cm, err := p.client.CoreV1().ConfigMaps(p.namespace).Get(ctx, p.name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get configmap %s/%s: %w", p.namespace, p.name, err)
	}

	raw, ok := cm.Data[DataKey]
	if !ok {
		return nil, fmt.Errorf("configmap %s/%s missing key %q", p.namespace, p.name, DataKey)
	}

	var list []expectation.Expectation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("parse %q: %w", DataKey, err)
	}
	return list, nil
}

// Save serializes list and applies a strategic merge patch that sets
// data[DataKey] on the ConfigMap, creating it if it doesn't yet exist.
func (p *ConfigMapPersister) Save(ctx context.Context, list []expectation.Expectation) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal expectations: %w", err)
	}

	cms := p.client.CoreV1().ConfigMaps(p.namespace)

	patch, err := json.Marshal(map[string]any{
		"data": map[string]string{DataKey: string(raw)},
	})
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	_, err = cms.Patch(ctx, p.name, types.StrategicMergePatchType, patch, metav1.PatchOptions{FieldManager: "mimicrab"})
	if apierrors.IsNotFound(err) {
		_, createErr := cms.Create(ctx, &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{Name: p.name, Namespace: p.namespace},
			Data:       map[string]string{DataKey: string(raw)},
		}, metav1.CreateOptions{})
		if createErr != nil {
			return fmt.Errorf("create configmap %s/%s: %w", p.namespace, p.name, createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("patch configmap %s/%s: %w", p.namespace, p.name, err)
	}
	return nil
}
