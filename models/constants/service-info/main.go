package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Variant Search Service"
	SERVICE_WELCOME     ServiceInfo = "Variant search: filter translation and hydration over Elasticsearch"
	SERVICE_DESCRIPTION ServiceInfo = "Compiles variant filters into Elasticsearch queries and streams hydrated, annotated variants."

	SERVICE_ARTIFACT    ServiceInfo = "varsearch"
	SERVICE_VERSION     ServiceInfo = "0.1.0"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("org.varsearch:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
	SERVICE_TYPE        ServiceInfo = ServiceInfo(fmt.Sprintf("%s:%s", SERVICE_TYPE_NO_VER, SERVICE_VERSION))
)
