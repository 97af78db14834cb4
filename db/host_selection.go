package db

import (
	"github.com/gocql/gocql"
	"go.uber.org/atomic"
)

// dcInferringPolicy round robins over all hosts until the first host is added,
// then only over the hosts of that host's data center
type dcInferringPolicy struct {
	childPolicy  atomic.Value
	isLocalDcSet atomic.Bool
}

type childPolicyWrapper struct {
	policy gocql.HostSelectionPolicy
}

func NewDefaultHostSelectionPolicy() gocql.HostSelectionPolicy {
	return gocql.TokenAwareHostPolicy(NewDcInferringPolicy(), gocql.ShuffleReplicas())
}

func NewDcInferringPolicy() *dcInferringPolicy {
	policy := dcInferringPolicy{}
	policy.childPolicy.Store(childPolicyWrapper{gocql.RoundRobinHostPolicy()})
	return &policy
}

func (p *dcInferringPolicy) child() gocql.HostSelectionPolicy {
	return p.childPolicy.Load().(childPolicyWrapper).policy
}

func (p *dcInferringPolicy) AddHost(host *gocql.HostInfo) {
	if p.isLocalDcSet.CAS(false, true) {
		local := gocql.DCAwareRoundRobinPolicy(host.DataCenter())
		p.childPolicy.Store(childPolicyWrapper{local})
		local.AddHost(host)
		return
	}
	p.child().AddHost(host)
}

func (p *dcInferringPolicy) RemoveHost(host *gocql.HostInfo) {
	p.child().RemoveHost(host)
}

func (p *dcInferringPolicy) HostUp(host *gocql.HostInfo) {
	p.child().HostUp(host)
}

func (p *dcInferringPolicy) HostDown(host *gocql.HostInfo) {
	p.child().HostDown(host)
}

func (p *dcInferringPolicy) SetPartitioner(partitioner string) {
	p.child().SetPartitioner(partitioner)
}

func (p *dcInferringPolicy) KeyspaceChanged(e gocql.KeyspaceUpdateEvent) {
	p.child().KeyspaceChanged(e)
}

func (p *dcInferringPolicy) IsLocal(host *gocql.HostInfo) bool {
	return p.child().IsLocal(host)
}

// Init is not called by the token aware parent on its fallback policy
func (p *dcInferringPolicy) Init(*gocql.Session) {}

func (p *dcInferringPolicy) Pick(query gocql.ExecutableQuery) gocql.NextHost {
	return p.child().Pick(query)
}
