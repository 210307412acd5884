package natsbus

import (
	"fmt"
	"strings"
)

// Topic patterns for NATS pub/sub communication.

func TopicAgentHeartbeat(agentID string) string {
	return fmt.Sprintf("agent.%s.heartbeat", agentID)
}

func TopicEventsAgent(agentID string) string {
	return fmt.Sprintf("events.agent.%s", agentID)
}

func TopicEventsTask(taskID string) string {
	return fmt.Sprintf("events.task.%s", taskID)
}

func TopicEventsCoordination(coordinationID string) string {
	return fmt.Sprintf("events.coordination.%s", coordinationID)
}

// AgentIDFromHeartbeat extracts the agent ID from a heartbeat subject,
// or returns "" for any other subject shape.
func AgentIDFromHeartbeat(subject string) string {
	parts := strings.Split(subject, ".")
	if len(parts) == 3 && parts[0] == "agent" && parts[2] == "heartbeat" {
		return parts[1]
	}
	return ""
}

const (
	TopicEventsAll             = "events.>"
	TopicEventsTaskAll         = "events.task.*"
	TopicEventsAgentAll        = "events.agent.*"
	TopicEventsCoordinationAll = "events.coordination.*"
	TopicHeartbeatAll          = "agent.*.heartbeat"
)
