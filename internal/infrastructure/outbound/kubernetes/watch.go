package kubernetes

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/sophialabs/mimicrab/internal/domain/expectation"
	"github.com/sophialabs/mimicrab/internal/infrastructure/ports"
)

// Watch subscribes to ConfigMap events for p.name and invokes onChange
// with the parsed expectation list for each event that carries valid
// content. Malformed events are logged and skipped; the loop returns when
// the watch stream ends or ctx is cancelled.
func (p *ConfigMapPersister) Watch(ctx context.Context, logger ports.Logger, onChange func([]expectation.Expectation)) error {
	watcher, err := p.client.CoreV1().ConfigMaps(p.namespace).Watch(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("metadata.name", p.name).String(),
	})
	if err != nil {
		return fmt.Errorf("watch configmap %s/%s: %w", p.namespace, p.name, err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.ResultChan():
			if !ok {
				return nil
			}
			p.handleEvent(event, logger, onChange)
		}
	}
}

func (p *ConfigMapPersister) handleEvent(event watch.Event, logger ports.Logger, onChange func([]expectation.Expectation)) {
	if event.Type == watch.Error || event.Type == watch.Deleted {
		return
	}

	cm, ok := event.Object.(*corev1.ConfigMap)
	if !ok {
		return
	}

	raw, ok := cm.Data[DataKey]
	if !ok {
		return
	}

	var list []expectation.Expectation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		logger.Error("watch event carried unparseable expectations", "error", err)
		return
	}

	onChange(list)
}
